package monitor

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/samvad-hq/httpfetch/pkg/endpoints"
)

const (
	maxHTMLBodyBytes = 1 << 20 // 1 MiB
	maxSummaryKeys   = 10
)

// summarize extracts a short human-readable description of an OK body.
func summarize(format string, body []byte) (string, error) {
	switch format {
	case endpoints.FormatXML:
		return xmlRoot(body)
	case endpoints.FormatHTML:
		return htmlTitle(body)
	default:
		return "", nil
	}
}

// jsonSummary describes a decoded JSON document by its shape.
func jsonSummary(doc any) string {
	switch v := doc.(type) {
	case map[string]any:
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		more := ""
		if len(keys) > maxSummaryKeys {
			more = fmt.Sprintf(" (+%d)", len(keys)-maxSummaryKeys)
			keys = keys[:maxSummaryKeys]
		}
		return "object{" + strings.Join(keys, ",") + "}" + more
	case []any:
		return fmt.Sprintf("array[%d]", len(v))
	case nil:
		return "null"
	case string:
		return "string"
	case float64:
		return "number"
	case bool:
		return "bool"
	default:
		return fmt.Sprintf("%T", v)
	}
}

func xmlRoot(body []byte) (string, error) {
	dec := xml.NewDecoder(bytes.NewReader(body))
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			return "", errors.New("xml document has no root element")
		}
		if err != nil {
			return "", fmt.Errorf("parse xml: %w", err)
		}
		if start, ok := tok.(xml.StartElement); ok {
			return "<" + start.Name.Local + ">", nil
		}
	}
}

func htmlTitle(body []byte) (string, error) {
	if len(body) > maxHTMLBodyBytes {
		body = body[:maxHTMLBodyBytes]
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("parse html: %w", err)
	}

	extract := func(sel string) string {
		if node := doc.Find(sel).First(); node.Length() > 0 {
			if val, ok := node.Attr("content"); ok {
				return strings.TrimSpace(val)
			}
		}
		return ""
	}

	return firstNonEmpty(
		extract(`meta[property="og:title"]`),
		doc.Find("title").First().Text(),
	), nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}
