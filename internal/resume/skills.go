package resume

import (
	"sort"
	"strings"
	"unicode"
)

// DefaultVocabulary is the fixed set of skills a resume is matched against.
// Matching is exact token membership, so every entry must appear in the
// resume with this exact surface form to be picked up.
var DefaultVocabulary = []string{
	"Machine Learning", "Deep Learning", "Python", "Java", "C++", "Android", "Spring Boot",
	"Data Science", "NLP", "TensorFlow", "Keras", "Pandas", "NumPy", "SQL", "MongoDB",
	"Docker", "Kubernetes", "Git", "REST APIs", "FastAPI", "Flask", "React", "Node.js",
	"JavaScript", "TypeScript", "GraphQL", "AWS", "Azure", "GCP", "Firebase", "Flutter",
	"Kotlin", "Django", "PyTorch", "Computer Vision", "Hugging Face", "Transformers",
	"Speech Recognition", "LLMs", "Prompt Engineering", "CSS", "Postgres",
	"HTML", "Rust", "Go", "gRPC", "Terraform",
}

// ExtractSkills returns the subset of vocabulary whose exact surface form
// appears in text, as a lexicographically sorted slice. No stemming or fuzzy
// matching: "Pythonic" does not match "Python". Multi-word vocabulary entries
// match a run of consecutive tokens.
func ExtractSkills(text string, vocabulary []string) []string {
	tokens := tokenize(text)
	if len(tokens) == 0 {
		return nil
	}

	found := make(map[string]struct{})
	for _, term := range vocabulary {
		termTokens := strings.Fields(term)
		if len(termTokens) == 0 {
			continue
		}
		if containsRun(tokens, termTokens) {
			found[term] = struct{}{}
		}
	}

	out := make([]string, 0, len(found))
	for term := range found {
		out = append(out, term)
	}
	sort.Strings(out)
	return out
}

func containsRun(tokens, run []string) bool {
	for i := 0; i+len(run) <= len(tokens); i++ {
		matched := true
		for j := range run {
			if tokens[i+j] != run[j] {
				matched = false
				break
			}
		}
		if matched {
			return true
		}
	}
	return false
}

// tokenize splits on whitespace and strips surrounding punctuation while
// keeping interior characters, so "C++," yields "C++" and "Node.js." yields
// "Node.js".
func tokenize(text string) []string {
	fields := strings.Fields(text)
	tokens := make([]string, 0, len(fields))
	for _, f := range fields {
		tok := strings.TrimFunc(f, func(r rune) bool {
			return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '+' && r != '#'
		})
		if tok != "" {
			tokens = append(tokens, tok)
		}
	}
	return tokens
}
