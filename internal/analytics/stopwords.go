package analytics

// stopStems holds stems of English words that are unlikely to convey much
// information; vocabulary counting drops any token whose stem appears here.
var stopStems = map[string]bool{}

func init() {
	for _, s := range stopStemList {
		stopStems[s] = true
	}
}

var stopStemList = []string{
	"",
	"a", "about", "abov", "across", "after", "afterward", "again", "against",
	"all", "almost", "alon", "along", "alreadi", "also", "although", "alwai",
	"alway", "am", "among", "amongst", "amoungst", "amount", "an", "and",
	"anoth", "ani", "anybodi", "anyhow", "anyon", "anythi", "anyth", "anywai",
	"anywher", "ar", "are", "around", "as", "at",
	"back", "be", "becam", "becaus", "becom", "been", "befor", "beforehand",
	"behind", "below", "besid", "between", "beyond", "bill", "both", "bottom",
	"but", "by",
	"call", "can", "cannot", "cant", "co", "con", "could", "couldnt", "cry",
	"de", "describ", "detail", "do", "done", "down", "due", "dure",
	"each", "eg", "eight", "either", "eleven", "els", "elsewher", "empti",
	"enough", "etc", "even", "ever", "everi", "everyon", "everyth",
	"everywher", "except",
	"few", "fifteen", "fifti", "fill", "find", "fire", "first", "five", "for",
	"former", "formerli", "forti", "found", "four", "from", "front", "full",
	"further",
	"get", "give", "go",
	"had", "ha", "has", "hasnt", "have", "he", "henc", "her", "here",
	"hereaft", "herebi", "herein", "hereupon", "herself", "him", "himself",
	"hi", "his", "how", "howev", "http", "hundr",
	"i", "ie", "if", "in", "inc", "inde", "interest", "into", "is", "it",
	"itself",
	"keep",
	"last", "latter", "latterli", "least", "less", "ltd",
	"made", "mani", "mai", "may", "me", "meanwhil", "might", "mill", "mine",
	"more", "moreov", "most", "mostli", "move", "much", "must", "my",
	"myself",
	"name", "neither", "never", "nevertheless", "next", "nine", "no",
	"nobodi", "none", "noon", "nor", "not", "noth", "now", "nowher",
	"of", "off", "often", "on", "onc", "one", "onli", "onto", "or", "other",
	"otherwis", "our", "ourselv", "out", "over", "own",
	"part", "per", "perhap", "pleas", "put",
	"rather", "re",
	"same", "see", "seem", "seriou", "sever", "she", "should", "show",
	"side", "sinc", "sincer", "six", "sixti", "so", "some", "somehow",
	"someon", "someth", "sometim", "somewher", "still", "such", "system",
	"take", "ten", "than", "that", "the", "their", "them", "themselv",
	"then", "thenc", "there", "thereaft", "therebi", "therefor", "therein",
	"thereupon", "these", "thei", "they", "thickv", "thin", "third", "thi",
	"this", "those", "though", "three", "through", "throughout", "thru",
	"thu", "thus", "to", "togeth", "too", "top", "toward", "twelv", "twenti",
	"two",
	"un", "under", "until", "up", "upon", "us",
	"veri", "via",
	"wa", "was", "we", "well", "were", "what", "whatev", "when", "whenc",
	"whenev", "where", "whereaft", "wherea", "wherebi", "wherein",
	"whereupon", "wherev", "whether", "which", "while", "whither", "who",
	"whoever", "whole", "whom", "whose", "why", "will", "with", "within",
	"without", "would",
	"yet", "you", "your", "yourself", "yourselv",
}
