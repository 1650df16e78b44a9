// Package pdfx locates a page's table-of-contents hierarchy and extracts
// page text from a PDF file.
package pdfx

// Chapter is one table-of-contents entry: name, the inclusive page range it
// covers, and its subchapters. Mirrors pdf_retriever.py's `chapter` tuple
// type (name, start_page, end_page, subchapters).
type Chapter struct {
	Name        string    `json:"name"`
	StartPage   int       `json:"start_page"`
	EndPage     int       `json:"end_page"`
	Subchapters []Chapter `json:"subchapters,omitempty"`
}

// RootSection is the synthetic section a page is assigned to when no TOC
// entry covers it, matching the original's ('Root',) fallback.
var RootSection = []string{"Root"}

// LocateSections returns every matching TOC hierarchy a page belongs to, as
// one []string path per match, outermost-first. A page nested three levels
// deep yields one match per level (chapter, chapter/section,
// chapter/section/subsection), not just the deepest one, matching
// pdf_retriever.py's locate_sections recursive descent exactly.
//
// Example:
//
//	toc = [ chapter1(1-9)[ ch1-1(1-4)[ ch1-1-1(1-2), ch1-1-2(2-4) ], ch1-2(4-9) ],
//	        chapter2(10-15)[ ch2-1(10-12), ch2-2(13-15) ] ]
//	LocateSections(2, toc) = [[chapter1], [chapter1 ch1-1], [chapter1 ch1-1 ch1-1-1], [chapter1 ch1-1 ch1-1-2]]
//	LocateSections(5, toc) = [[chapter1], [chapter1 ch1-2]]
//	LocateSections(12, toc) = [[chapter2], [chapter2 ch2-1]]
//	LocateSections(20, toc) = [[Root]]
func LocateSections(pageNumber int, toc []Chapter) [][]string {
	sections := findSections(pageNumber, toc, nil)
	if len(sections) == 0 {
		return [][]string{RootSection}
	}
	return sections
}

func findSections(pageNumber int, toc []Chapter, parent []string) [][]string {
	var matches [][]string
	for _, ch := range toc {
		current := append(append([]string{}, parent...), ch.Name)
		if ch.StartPage <= pageNumber && pageNumber <= ch.EndPage {
			matches = append(matches, current)
			if len(ch.Subchapters) > 0 {
				matches = append(matches, findSections(pageNumber, ch.Subchapters, current)...)
			}
		}
	}
	return matches
}
