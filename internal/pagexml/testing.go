package pagexml

import "github.com/beevik/etree"

// Namespace is the PAGE 2019 content namespace used by BuildDocument.
const Namespace = "http://schema.primaresearch.org/PAGE/gts/pagecontent/2019-07-15"

// BuildDocument renders a single-region PAGE document with one TextLine per
// entry of lines. An empty entry produces a line without recognized text.
// It is exported for use in tests of dependent packages.
func BuildDocument(imageFilename string, lines ...string) []byte {
	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)

	root := doc.CreateElement("PcGts")
	root.CreateAttr("xmlns", Namespace)
	root.CreateElement("Metadata").CreateElement("Creator").SetText("pagesearch")

	page := root.CreateElement(TagPage)
	page.CreateAttr(AttrImageFilename, imageFilename)

	region := page.CreateElement("TextRegion")
	region.CreateAttr("id", "r1")
	for _, text := range lines {
		line := region.CreateElement(TagTextLine)
		if text == "" {
			continue
		}
		line.CreateElement(TagTextEquiv).CreateElement(TagUnicode).SetText(text)
	}

	doc.Indent(2)
	data, err := doc.WriteToBytes()
	if err != nil {
		panic(err)
	}
	return data
}
