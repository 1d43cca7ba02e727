package lemma

// adverbToAdjective maps adverbs whose adjective cannot be recovered by plain
// suffix stripping.
var adverbToAdjective = map[string]string{
	"happily":     "happy",
	"easily":      "easy",
	"busily":      "busy",
	"angrily":     "angry",
	"heavily":     "heavy",
	"luckily":     "lucky",
	"readily":     "ready",
	"steadily":    "steady",
	"hungrily":    "hungry",
	"lazily":      "lazy",
	"noisily":     "noisy",
	"simply":      "simple",
	"gently":      "gentle",
	"humbly":      "humble",
	"terribly":    "terrible",
	"horribly":    "horrible",
	"possibly":    "possible",
	"probably":    "probable",
	"comfortably": "comfortable",
	"incredibly":  "incredible",
	"truly":       "true",
	"wholly":      "whole",
	"duly":        "due",
	"fully":       "full",
	"dully":       "dull",
	"publicly":    "public",
	"basically":   "basic",
	"quickly":     "quick",
	"slowly":      "slow",
}

// adjectiveSuffixes mark words that are treated as adjectives without a table entry.
var adjectiveSuffixes = []string{"ful", "ous", "ive", "able", "ible", "less", "ical"}

var commonAdjectives = map[string]bool{
	"able": true, "angry": true, "bad": true, "basic": true, "big": true, "bright": true,
	"brief": true, "busy": true, "calm": true, "cheap": true, "clean": true, "clear": true,
	"close": true, "cold": true, "common": true, "complete": true, "correct": true, "dark": true,
	"dead": true, "deep": true, "direct": true, "due": true, "dull": true, "early": true,
	"easy": true, "exact": true, "fair": true, "false": true, "fast": true, "final": true,
	"fine": true, "firm": true, "free": true, "fresh": true, "full": true, "gentle": true,
	"glad": true, "good": true, "great": true, "happy": true, "hard": true, "heavy": true,
	"high": true, "honest": true, "hot": true, "huge": true, "humble": true, "hungry": true,
	"kind": true, "large": true, "late": true, "lazy": true, "light": true, "likely": true,
	"loud": true, "low": true, "lucky": true, "main": true, "mere": true, "modern": true,
	"near": true, "new": true, "nice": true, "noisy": true, "normal": true, "old": true,
	"open": true, "perfect": true, "plain": true, "polite": true, "poor": true, "possible": true,
	"probable": true, "proper": true, "proud": true, "public": true, "pure": true, "quick": true,
	"quiet": true, "rapid": true, "rare": true, "ready": true, "real": true, "recent": true,
	"rich": true, "rough": true, "rude": true, "sad": true, "safe": true, "sharp": true,
	"short": true, "silent": true, "simple": true, "slight": true, "slow": true, "smart": true,
	"smooth": true, "soft": true, "strange": true, "strict": true, "strong": true, "sudden": true,
	"sure": true, "sweet": true, "terrible": true, "thick": true, "thin": true, "tight": true,
	"true": true, "usual": true, "vague": true, "warm": true, "weak": true, "whole": true,
	"wide": true, "wild": true, "wise": true, "wrong": true, "young": true, "steady": true,
	"horrible": true, "incredible": true, "comfortable": true, "friendly": true, "lovely": true,
}

var commonAdverbs = map[string]bool{
	"again": true, "almost": true, "already": true, "also": true, "always": true, "anyway": true,
	"ever": true, "fast": true, "hard": true, "here": true, "just": true, "later": true,
	"never": true, "now": true, "often": true, "once": true, "perhaps": true, "quite": true,
	"rather": true, "seldom": true, "soon": true, "still": true, "then": true, "there": true,
	"today": true, "together": true, "too": true, "very": true, "well": true, "yet": true,
}

// lyNonAdverbs end in -ly but are not adverbs derived from adjectives.
var lyNonAdverbs = map[string]bool{
	"apply": true, "assembly": true, "belly": true, "bully": true, "daily": true, "early": true,
	"family": true, "friendly": true, "holy": true, "italy": true, "jelly": true, "july": true,
	"likely": true, "lonely": true, "lovely": true, "monopoly": true, "only": true, "rally": true,
	"reply": true, "rely": true, "silly": true, "supply": true, "ugly": true, "weekly": true,
	"monthly": true, "yearly": true, "anomaly": true, "butterfly": true, "comply": true,
}

// nonVerbIng end in -ing but have no verb base to recover.
var nonVerbIng = map[string]bool{
	"anything": true, "ceiling": true, "during": true, "evening": true, "everything": true,
	"morning": true, "nothing": true, "something": true, "spring": true, "string": true,
	"thing": true, "wedding": true, "pudding": true, "awning": true, "herring": true,
	"sibling": true, "darling": true, "duckling": true,
}

// nonVerbEd end in -ed but are not past forms.
var nonVerbEd = map[string]bool{
	"hundred": true, "naked": true, "sacred": true, "wicked": true, "kindred": true,
	"rugged": true, "ragged": true, "crooked": true, "beloved": true,
}

// nonPlural end in -s but are not plural nouns.
var nonPlural = map[string]bool{
	"afterwards": true, "alias": true, "always": true, "atlas": true, "besides": true,
	"bias": true, "canvas": true, "chaos": true, "diabetes": true, "gas": true,
	"headquarters": true, "hers": true, "its": true, "kudos": true, "lens": true,
	"means": true, "news": true, "ours": true, "perhaps": true, "series": true,
	"sometimes": true, "species": true, "theirs": true, "towards": true, "whereas": true,
	"yes": true, "yours": true, "across": true, "upwards": true, "downwards": true,
}

// irregularVerbs maps inflected forms to their infinitive.
var irregularVerbs = map[string]string{
	"am": "be", "is": "be", "are": "be", "was": "be", "were": "be", "been": "be", "being": "be",
	"has": "have", "had": "have", "having": "have",
	"does": "do", "did": "do", "done": "do", "doing": "do",
	"goes": "go", "went": "go", "gone": "go", "going": "go",
	"ate": "eat", "eaten": "eat",
	"became": "become",
	"began": "begin", "begun": "begin",
	"bought": "buy",
	"broke": "break", "broken": "break",
	"brought": "bring",
	"built": "build",
	"came": "come",
	"caught": "catch",
	"chose": "choose", "chosen": "choose",
	"dealt": "deal",
	"died": "die", "dying": "die",
	"drew": "draw", "drawn": "draw",
	"driven": "drive", "drove": "drive",
	"fell": "fall", "fallen": "fall",
	"felt": "feel",
	"flew": "fly", "flown": "fly",
	"fought": "fight",
	"found": "find",
	"forgot": "forget", "forgotten": "forget",
	"froze": "freeze", "frozen": "freeze",
	"gave": "give", "given": "give",
	"got": "get", "gotten": "get",
	"grew": "grow", "grown": "grow",
	"heard": "hear",
	"held": "hold",
	"hid": "hide", "hidden": "hide",
	"kept": "keep",
	"knew": "know", "known": "know",
	"lain": "lie", "lied": "lie", "lying": "lie",
	"led": "lead",
	"left": "leave",
	"lost": "lose",
	"made": "make",
	"meant": "mean",
	"met": "meet",
	"paid": "pay",
	"ran": "run",
	"ridden": "ride", "rode": "ride",
	"risen": "rise", "rose": "rise",
	"said": "say",
	"sang": "sing", "sung": "sing",
	"sat": "sit",
	"saw": "see", "seen": "see", "seeing": "see",
	"sent": "send",
	"shaken": "shake", "shook": "shake",
	"slept": "sleep",
	"sought": "seek",
	"spent": "spend",
	"spoke": "speak", "spoken": "speak",
	"stole": "steal", "stolen": "steal",
	"stood": "stand",
	"struck": "strike",
	"swam": "swim", "swum": "swim",
	"taken": "take", "took": "take",
	"taught": "teach",
	"thought": "think",
	"threw": "throw", "thrown": "throw",
	"tied": "tie", "tying": "tie",
	"told": "tell",
	"understood": "understand",
	"woke": "wake", "woken": "wake",
	"won": "win",
	"wore": "wear", "worn": "wear",
	"wrote": "write", "written": "write", "writing": "write",
}
