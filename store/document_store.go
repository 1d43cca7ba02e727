// Package store holds the live document: an ordered set of content units
// with their block and high-frequency container membership.
package store

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"

	"github.com/andybalholm/cascadia"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	internalErrors "github.com/gcbaptista/go-vocab-highlighter/internal/errors"
	"github.com/gcbaptista/go-vocab-highlighter/model"
)

// skippedElements never contribute visible text.
var skippedElements = map[atom.Atom]bool{
	atom.Head:     true,
	atom.Script:   true,
	atom.Style:    true,
	atom.Noscript: true,
	atom.Template: true,
	atom.Iframe:   true,
	atom.Svg:      true,
}

// blockElements start a new block; a block groups the units used for sentence extraction.
var blockElements = map[atom.Atom]bool{
	atom.Address: true, atom.Article: true, atom.Aside: true, atom.Blockquote: true,
	atom.Body: true, atom.Caption: true, atom.Dd: true, atom.Details: true, atom.Div: true,
	atom.Dl: true, atom.Dt: true, atom.Fieldset: true, atom.Figcaption: true, atom.Figure: true,
	atom.Footer: true, atom.Form: true, atom.H1: true, atom.H2: true, atom.H3: true,
	atom.H4: true, atom.H5: true, atom.H6: true, atom.Header: true, atom.Li: true,
	atom.Main: true, atom.Nav: true, atom.Ol: true, atom.P: true, atom.Pre: true,
	atom.Section: true, atom.Summary: true, atom.Table: true, atom.Td: true, atom.Th: true,
	atom.Tr: true, atom.Ul: true,
}

// DocumentStore is the in-memory content tree. Every mutation bumps the
// version and returns the change batch describing it.
type DocumentStore struct {
	Mu            sync.RWMutex
	ByID          map[model.UnitID]model.ContentUnit
	Order         []model.UnitID
	NextID        uint32
	NextBlock     uint32
	NextContainer uint32

	version    uint64
	selector   cascadia.SelectorGroup
	containers map[string]model.BlockID
}

// NewDocumentStore creates an empty store. Elements matching any of
// highFrequencySelectors mark their text as high-frequency content.
func NewDocumentStore(highFrequencySelectors []string) (*DocumentStore, error) {
	ds := &DocumentStore{
		ByID:       make(map[model.UnitID]model.ContentUnit),
		containers: make(map[string]model.BlockID),
	}
	for _, sel := range highFrequencySelectors {
		if strings.TrimSpace(sel) == "" {
			continue
		}
		group, err := cascadia.ParseGroup(sel)
		if err != nil {
			return nil, fmt.Errorf("invalid high-frequency selector '%s': %w", sel, err)
		}
		ds.selector = append(ds.selector, group...)
	}
	return ds, nil
}

// walkContext is inherited from ancestors while walking the HTML tree.
type walkContext struct {
	block     model.BlockID
	tag       string
	container string
	hidden    bool
}

// LoadHTML replaces the whole document with the body text of r.
func (ds *DocumentStore) LoadHTML(r io.Reader) (model.ChangeBatch, error) {
	root, err := html.Parse(r)
	if err != nil {
		return model.ChangeBatch{}, fmt.Errorf("failed to parse document: %w", err)
	}

	ds.Mu.Lock()
	defer ds.Mu.Unlock()

	batch := model.ChangeBatch{Removed: append([]model.UnitID{}, ds.Order...)}
	ds.ByID = make(map[model.UnitID]model.ContentUnit)
	ds.Order = nil
	ds.containers = make(map[string]model.BlockID)

	var units []model.ContentUnit
	ds.walk(root, walkContext{block: ds.newBlock()}, &units)
	for _, u := range units {
		ds.ByID[u.ID] = u
		ds.Order = append(ds.Order, u.ID)
	}
	batch.Added = units
	ds.version++
	return batch, nil
}

// AppendHTML parses an HTML fragment and appends its units to the end of the document.
func (ds *DocumentStore) AppendHTML(r io.Reader) (model.ChangeBatch, error) {
	nodes, err := parseFragment(r)
	if err != nil {
		return model.ChangeBatch{}, err
	}

	ds.Mu.Lock()
	defer ds.Mu.Unlock()

	var units []model.ContentUnit
	ctx := walkContext{block: ds.newBlock()}
	for _, n := range nodes {
		ds.walk(n, ctx, &units)
	}
	for _, u := range units {
		ds.ByID[u.ID] = u
		ds.Order = append(ds.Order, u.ID)
	}
	ds.version++
	return model.ChangeBatch{Added: units}, nil
}

// AppendText appends a plain text unit. Block 0 opens a new block.
func (ds *DocumentStore) AppendText(block model.BlockID, text string) (model.ChangeBatch, error) {
	ds.Mu.Lock()
	defer ds.Mu.Unlock()

	u := model.ContentUnit{Text: text, Block: block, Tag: "p"}
	if block == 0 {
		u.Block = ds.newBlock()
	} else {
		// Inherit container membership from the block's existing units.
		for _, id := range ds.Order {
			if other := ds.ByID[id]; other.Block == block {
				u.Tag = other.Tag
				u.Container = other.Container
				u.HighFrequency = other.HighFrequency
				break
			}
		}
	}
	u.ID = ds.newID()
	ds.ByID[u.ID] = u
	ds.Order = append(ds.Order, u.ID)
	ds.version++
	return model.ChangeBatch{Added: []model.ContentUnit{u}}, nil
}

// ReplaceText edits a unit's text in place. Outside high-frequency containers
// this is a free-text change.
func (ds *DocumentStore) ReplaceText(id model.UnitID, text string) (model.ChangeBatch, error) {
	ds.Mu.Lock()
	defer ds.Mu.Unlock()

	u, ok := ds.ByID[id]
	if !ok {
		return model.ChangeBatch{}, internalErrors.NewUnitNotFoundError(uint32(id))
	}
	u.Text = text
	ds.ByID[id] = u
	ds.version++
	return model.ChangeBatch{Changed: []model.UnitID{id}, FreeTextChanged: !u.HighFrequency}, nil
}

// ReplaceContainer swaps the content of a high-frequency container, the way
// caption players replace their cue text.
func (ds *DocumentStore) ReplaceContainer(container string, r io.Reader) (model.ChangeBatch, error) {
	nodes, err := parseFragment(r)
	if err != nil {
		return model.ChangeBatch{}, err
	}

	ds.Mu.Lock()
	defer ds.Mu.Unlock()

	block, known := ds.containers[container]
	if !known {
		return model.ChangeBatch{}, internalErrors.NewValidationError("container", fmt.Sprintf("unknown container '%s'", container))
	}

	insertAt := -1
	var removed []model.UnitID
	kept := make([]model.UnitID, 0, len(ds.Order))
	for _, id := range ds.Order {
		u := ds.ByID[id]
		if u.Container != container {
			kept = append(kept, id)
			continue
		}
		if insertAt < 0 {
			insertAt = len(kept)
		}
		removed = append(removed, id)
		delete(ds.ByID, id)
	}
	if insertAt < 0 {
		insertAt = len(kept)
	}

	var units []model.ContentUnit
	ctx := walkContext{block: block, tag: "span", container: container}
	for _, n := range nodes {
		ds.walk(n, ctx, &units)
	}

	ids := make([]model.UnitID, 0, len(units))
	for i := range units {
		units[i].HighFrequency = true
		ds.ByID[units[i].ID] = units[i]
		ids = append(ids, units[i].ID)
	}
	order := make([]model.UnitID, 0, len(kept)+len(ids))
	order = append(order, kept[:insertAt]...)
	order = append(order, ids...)
	order = append(order, kept[insertAt:]...)
	ds.Order = order
	ds.version++

	return model.ChangeBatch{Added: units, Removed: removed}, nil
}

// SetHidden toggles a unit's visibility.
func (ds *DocumentStore) SetHidden(id model.UnitID, hidden bool) (model.ChangeBatch, error) {
	ds.Mu.Lock()
	defer ds.Mu.Unlock()

	u, ok := ds.ByID[id]
	if !ok {
		return model.ChangeBatch{}, internalErrors.NewUnitNotFoundError(uint32(id))
	}
	u.Hidden = hidden
	ds.ByID[id] = u
	ds.version++
	return model.ChangeBatch{Changed: []model.UnitID{id}}, nil
}

// Remove detaches units from the document. Unknown IDs are ignored.
func (ds *DocumentStore) Remove(ids ...model.UnitID) model.ChangeBatch {
	ds.Mu.Lock()
	defer ds.Mu.Unlock()

	drop := make(map[model.UnitID]bool, len(ids))
	var removed []model.UnitID
	for _, id := range ids {
		if _, ok := ds.ByID[id]; ok && !drop[id] {
			drop[id] = true
			removed = append(removed, id)
			delete(ds.ByID, id)
		}
	}
	if len(removed) == 0 {
		return model.ChangeBatch{}
	}

	kept := ds.Order[:0]
	for _, id := range ds.Order {
		if !drop[id] {
			kept = append(kept, id)
		}
	}
	ds.Order = kept
	ds.version++
	return model.ChangeBatch{Removed: removed}
}

// Units returns all attached units in document order.
func (ds *DocumentStore) Units() []model.ContentUnit {
	ds.Mu.RLock()
	defer ds.Mu.RUnlock()

	out := make([]model.ContentUnit, 0, len(ds.Order))
	for _, id := range ds.Order {
		out = append(out, ds.ByID[id])
	}
	return out
}

// Unit returns the unit with the given ID.
func (ds *DocumentStore) Unit(id model.UnitID) (model.ContentUnit, bool) {
	ds.Mu.RLock()
	defer ds.Mu.RUnlock()
	u, ok := ds.ByID[id]
	return u, ok
}

// BlockUnits returns the units of a block in document order.
func (ds *DocumentStore) BlockUnits(block model.BlockID) []model.ContentUnit {
	ds.Mu.RLock()
	defer ds.Mu.RUnlock()

	out := make([]model.ContentUnit, 0)
	for _, id := range ds.Order {
		if u := ds.ByID[id]; u.Block == block {
			out = append(out, u)
		}
	}
	return out
}

// BlockText concatenates the text of a block's units.
func (ds *DocumentStore) BlockText(block model.BlockID) string {
	var sb strings.Builder
	for _, u := range ds.BlockUnits(block) {
		sb.WriteString(u.Text)
	}
	return sb.String()
}

// Containers returns the keys of every high-frequency container seen so far.
func (ds *DocumentStore) Containers() []string {
	ds.Mu.RLock()
	defer ds.Mu.RUnlock()

	out := make([]string, 0, len(ds.containers))
	for key := range ds.containers {
		out = append(out, key)
	}
	sort.Strings(out)
	return out
}

// UnitsInContainer returns the units of a high-frequency container in document order.
func (ds *DocumentStore) UnitsInContainer(container string) []model.ContentUnit {
	ds.Mu.RLock()
	defer ds.Mu.RUnlock()

	out := make([]model.ContentUnit, 0)
	for _, id := range ds.Order {
		if u := ds.ByID[id]; u.Container == container && container != "" {
			out = append(out, u)
		}
	}
	return out
}

// Version increases with every mutation.
func (ds *DocumentStore) Version() uint64 {
	ds.Mu.RLock()
	defer ds.Mu.RUnlock()
	return ds.version
}

// Len returns the number of attached units.
func (ds *DocumentStore) Len() int {
	ds.Mu.RLock()
	defer ds.Mu.RUnlock()
	return len(ds.Order)
}

func (ds *DocumentStore) newID() model.UnitID {
	ds.NextID++
	return model.UnitID(ds.NextID)
}

func (ds *DocumentStore) newBlock() model.BlockID {
	ds.NextBlock++
	return model.BlockID(ds.NextBlock)
}

// walk collects the text nodes under n. Must be called with Mu held.
func (ds *DocumentStore) walk(n *html.Node, ctx walkContext, out *[]model.ContentUnit) {
	switch n.Type {
	case html.TextNode:
		if strings.TrimSpace(n.Data) == "" {
			return
		}
		u := model.ContentUnit{
			ID:            ds.newID(),
			Text:          n.Data,
			Block:         ctx.block,
			Tag:           ctx.tag,
			Container:     ctx.container,
			HighFrequency: ctx.container != "",
			Hidden:        ctx.hidden,
		}
		*out = append(*out, u)
		return
	case html.ElementNode:
		if skippedElements[n.DataAtom] {
			return
		}
		if blockElements[n.DataAtom] && n.DataAtom != atom.Body {
			ctx.block = ds.newBlock()
		}
		ctx.tag = n.Data
		if isHidden(n) {
			ctx.hidden = true
		}
		if ctx.container == "" && len(ds.selector) > 0 && ds.selector.Match(n) {
			ctx.container = ds.containerKey(n)
			ds.containers[ctx.container] = ctx.block
		}
	case html.CommentNode, html.DoctypeNode:
		return
	}

	for c := n.FirstChild; c != nil; c = c.NextSibling {
		ds.walk(c, ctx, out)
	}
}

func (ds *DocumentStore) containerKey(n *html.Node) string {
	for _, a := range n.Attr {
		if a.Key == "id" && a.Val != "" {
			return "#" + a.Val
		}
	}
	ds.NextContainer++
	return fmt.Sprintf("hf-%d", ds.NextContainer)
}

func isHidden(n *html.Node) bool {
	for _, a := range n.Attr {
		switch a.Key {
		case "hidden":
			return true
		case "aria-hidden":
			if strings.EqualFold(a.Val, "true") {
				return true
			}
		case "style":
			style := strings.ToLower(strings.ReplaceAll(a.Val, " ", ""))
			if strings.Contains(style, "display:none") || strings.Contains(style, "visibility:hidden") {
				return true
			}
		}
	}
	return false
}

func parseFragment(r io.Reader) ([]*html.Node, error) {
	body := &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}
	nodes, err := html.ParseFragment(r, body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse fragment: %w", err)
	}
	return nodes, nil
}
