package redact

import "strings"

// functionWords is the closed list of tokens that are never worth a blank:
// articles, prepositions, conjunctions, pronouns and auxiliaries.
var functionWords = toSet([]string{
	// articles and determiners
	"a", "an", "the", "this", "that", "these", "those", "some", "any", "each",
	"every", "no", "all", "both", "either", "neither", "such", "own", "other",
	// prepositions
	"about", "above", "across", "after", "against", "along", "among", "around",
	"at", "before", "behind", "below", "beneath", "beside", "besides", "between",
	"beyond", "by", "down", "during", "except", "for", "from", "in", "inside",
	"into", "like", "near", "of", "off", "on", "onto", "out", "outside", "over",
	"past", "since", "through", "throughout", "till", "to", "toward", "towards",
	"under", "until", "unto", "up", "upon", "with", "within", "without",
	// conjunctions
	"and", "but", "or", "nor", "so", "yet", "as", "because", "if", "than",
	"though", "although", "unless", "whether", "while", "whilst", "when",
	"whenever", "where", "wherever", "whereas", "then", "once",
	// pronouns
	"i", "me", "my", "mine", "myself", "we", "us", "our", "ours", "ourselves",
	"you", "your", "yours", "yourself", "yourselves", "he", "him", "his",
	"himself", "she", "her", "hers", "herself", "it", "its", "itself", "they",
	"them", "their", "theirs", "themselves", "who", "whom", "whose", "which",
	"what", "whatever", "whoever", "one", "thee", "thou", "thy", "thine", "ye",
	// auxiliaries and modals
	"am", "is", "are", "was", "were", "be", "been", "being", "have", "has",
	"had", "having", "do", "does", "did", "doing", "done", "will", "would",
	"shall", "should", "can", "could", "may", "might", "must", "ought", "hath",
	"doth", "shalt", "wilt", "art",
	// common adverbs that behave like function words
	"not", "very", "too", "also", "just", "only", "even", "here", "there",
	"now", "again", "ever", "never", "still", "more", "most", "much", "many",
	"few", "how", "why", "well",
})

// honorifics precede names; a capitalized token right after one is a name.
var honorifics = toSet([]string{
	"mr", "mrs", "ms", "miss", "dr", "st", "prof", "sir", "lady", "lord",
	"capt", "col", "gen", "rev", "madam", "madame", "mme", "mlle", "messrs",
})

// IsFunctionWord reports whether the cleaned, lower-cased token is on the
// closed function-word list.
func IsFunctionWord(token string) bool {
	_, ok := functionWords[strings.ToLower(token)]
	return ok
}

func isHonorific(token string) bool {
	t := strings.ToLower(strings.TrimRight(token, ".,"))
	_, ok := honorifics[t]
	return ok
}

func toSet(words []string) map[string]struct{} {
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[w] = struct{}{}
	}
	return set
}
