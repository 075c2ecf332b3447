package converter

import "github.com/goliatone/go-granola/pkg/interfaces"

// Marks nest in a fixed order regardless of how the service ordered the
// mark array: code innermost, then link, then bold, with italic applied
// last. {strong, em} on "x" therefore always renders as _**x**_.
func applyMarks(text string, marks []interfaces.Mark) string {
	if len(marks) == 0 {
		return text
	}

	var code, bold, italic bool
	var link string
	for _, mark := range marks {
		switch mark.Type {
		case "code":
			code = true
		case "link":
			link = markHref(mark)
		case "bold", "strong":
			bold = true
		case "italic", "em":
			italic = true
		}
	}

	if code {
		text = "`" + text + "`"
	}
	if link != "" {
		text = "[" + text + "](" + link + ")"
	}
	if bold {
		text = "**" + text + "**"
	}
	if italic {
		text = "_" + text + "_"
	}
	return text
}

func markHref(mark interfaces.Mark) string {
	if mark.Attrs == nil {
		return ""
	}
	if href, ok := mark.Attrs["href"].(string); ok {
		return href
	}
	return ""
}
