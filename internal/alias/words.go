package alias

// words is the pool long aliases are drawn three at a time from. All
// entries are lowercase, at least three letters and unique, matching
// ^[a-z]{3,}$ so any triplet satisfies the long alias regex.
var words = [144]string{
	"able", "acid", "aunt", "baby", "back", "bake", "bank", "barn",
	"bead", "bean", "bear", "beat", "bell", "belt", "bend", "bird",
	"blue", "boat", "bold", "bolt", "bone", "book", "boot", "born",
	"boss", "both", "bowl", "brag", "brave", "bread", "brick", "bridge",
	"bring", "brown", "brush", "build", "burn", "bush", "cake", "calm",
	"camp", "card", "care", "cart", "cave", "chair", "chalk", "chase",
	"cheap", "check", "chest", "chief", "child", "clean", "clear", "climb",
	"clock", "cloth", "cloud", "coach", "coast", "coat", "cold", "come",
	"cook", "cool", "corn", "cost", "cover", "crash", "crawl", "cream",
	"creek", "crisp", "crowd", "crown", "dance", "dark", "dawn", "deep",
	"desk", "dish", "dive", "dock", "door", "draft", "drain", "dream",
	"dress", "drift", "drill", "drink", "drive", "drop", "drum", "dusk",
	"dust", "earn", "east", "easy", "edge", "eight", "elbow", "empty",
	"equal", "every", "exact", "extra", "faint", "fair", "fall", "false",
	"fast", "fence", "field", "fifth", "fight", "final", "find", "fine",
	"fire", "first", "fish", "flag", "flame", "flash", "flat", "fleet",
	"flood", "floor", "flour", "flow", "fluid", "focus", "fold", "forge",
	"fork", "form", "fort", "forty", "found", "frame", "fresh", "frog",
}

func wordCount() int { return len(words) }
