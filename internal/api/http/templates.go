package httpapi

import (
	"embed"
	"encoding/json"
	"fmt"
	"html/template"
)

//go:embed templates/*.html
var templateFS embed.FS

// The payload is opaque: helpers return zero values for unexpected shapes
// so the page renders whatever the fetcher produced.
var templateFuncs = template.FuncMap{
	"asList":    asList,
	"asMap":     asMap,
	"field":     field,
	"isRecords": isRecords,
	"display":   display,
}

var (
	indexTmpl = template.Must(template.New("index.html").Funcs(templateFuncs).ParseFS(templateFS, "templates/index.html"))
	errorTmpl = template.Must(template.ParseFS(templateFS, "templates/error.html"))
)

func asList(v any) []any {
	list, _ := v.([]any)
	return list
}

func asMap(v any) map[string]any {
	m, _ := v.(map[string]any)
	return m
}

// field returns m[key] when v is an object, "" otherwise.
func field(v any, key string) any {
	if val, ok := asMap(v)[key]; ok && val != nil {
		return val
	}
	return ""
}

// isRecords reports whether v is a list of objects.
func isRecords(v any) bool {
	list, ok := v.([]any)
	if !ok {
		return false
	}
	for _, item := range list {
		if _, ok := item.(map[string]any); !ok {
			return false
		}
	}
	return true
}

// display renders a value that does not fit the table layout.
func display(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	raw, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(raw)
}
