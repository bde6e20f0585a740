package query

import "strings"

// synonymTable maps a canonical college topic to the phrasings people
// actually use. Lookup works both ways: asking about "cost" also
// surfaces chunks talking about "fee".
var synonymTable = map[string][]string{
	"fee":         {"tuition", "cost", "price", "payment", "dues", "charges", "amount"},
	"course":      {"program", "degree", "subject", "major", "stream", "branch", "specialization", "curriculum"},
	"location":    {"address", "where", "place", "campus", "located", "situated", "map", "directions"},
	"contact":     {"email", "phone", "number", "reach", "call", "helpline", "support", "office"},
	"admission":   {"apply", "application", "entry", "requirements", "eligibility", "process", "enrollment", "criteria"},
	"faculty":     {"teacher", "professor", "staff", "mentor", "guide", "hod", "principal", "director"},
	"placement":   {"job", "career", "salary", "package", "recruiter", "company", "hiring", "opportunities"},
	"hostel":      {"accommodation", "stay", "room", "living", "boarding", "residence", "mess"},
	"exam":        {"test", "schedule", "routine", "date", "marks", "grade", "result", "semester"},
	"scholarship": {"grant", "funding", "discount", "waiver", "aid"},
}

var reverseSynonyms = func() map[string]string {
	rev := make(map[string]string)
	for key, values := range synonymTable {
		for _, v := range values {
			rev[v] = key
		}
	}
	return rev
}()

// Synonyms returns expansion terms for the query's keywords,
// deduplicated and excluding terms already present in the query.
func Synonyms(q string) []string {
	words := strings.Fields(strings.ToLower(q))
	present := make(map[string]bool, len(words))
	for _, w := range words {
		present[w] = true
	}
	var out []string
	emitted := map[string]bool{}
	emit := func(term string) {
		if !present[term] && !emitted[term] {
			emitted[term] = true
			out = append(out, term)
		}
	}
	for _, w := range words {
		if values, ok := synonymTable[w]; ok {
			for _, v := range values {
				emit(v)
			}
		}
		if key, ok := reverseSynonyms[w]; ok {
			emit(key)
		}
	}
	return out
}

// Topics returns the canonical topics a query touches; the prefetcher
// uses them to pick related queries to warm.
func Topics(q string) []string {
	words := strings.Fields(strings.ToLower(q))
	var out []string
	seen := map[string]bool{}
	add := func(topic string) {
		if !seen[topic] {
			seen[topic] = true
			out = append(out, topic)
		}
	}
	for _, w := range words {
		if _, ok := synonymTable[w]; ok {
			add(w)
		}
		if key, ok := reverseSynonyms[w]; ok {
			add(key)
		}
	}
	return out
}
