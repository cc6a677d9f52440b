package parser

import (
	"bytes"
	"encoding/xml"
	"errors"
	"io"
	"strings"
)

// ParseWebloc extracts the video id from an Apple .webloc file: a plist XML
// document whose dict carries a <key>URL</key> followed by a <string> value.
// Only the first URL key is consulted. The result holds one entry or none.
func ParseWebloc(data []byte) Result {
	c := newCollector()

	raw, found := weblocURL(data)
	if !found {
		if len(bytes.TrimSpace(data)) > 0 {
			c.rejected++
		}
		return c.result()
	}
	c.add(raw)

	return c.result()
}

// weblocURL walks the XML token stream looking for the first <key> element
// with text "URL" and returns the text of the <string> element that follows.
func weblocURL(data []byte) (string, bool) {
	dec := xml.NewDecoder(bytes.NewReader(data))
	// .webloc files ship with a plist DOCTYPE; do not fetch it.
	dec.Strict = false

	urlKeySeen := false
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) || tok == nil {
			return "", false
		}
		if err != nil {
			return "", false
		}

		start, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}

		switch start.Name.Local {
		case "key":
			var key string
			if err := dec.DecodeElement(&key, &start); err != nil {
				return "", false
			}
			urlKeySeen = strings.TrimSpace(key) == "URL"
		case "string":
			if !urlKeySeen {
				continue
			}
			var value string
			if err := dec.DecodeElement(&value, &start); err != nil {
				return "", false
			}
			return strings.TrimSpace(value), true
		}
	}
}
