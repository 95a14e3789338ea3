package pdf

import "golang.org/x/text/language"

// Catalog represents a PDF Document Catalog. The only required field is
// Pages, the root of the page tree.
//
// The Document Catalog is documented in section 7.7.2 of PDF 32000-1:2008.
type Catalog struct {
	_ struct{} `pdf:"Type=Catalog"`

	// Pages is the root of the document's page tree.
	Pages Reference

	PageLayout Name `pdf:"optional"`
	PageMode   Name `pdf:"optional"`

	Outlines Reference `pdf:"optional"`
	Threads  Reference `pdf:"optional"`
	Metadata Reference `pdf:"optional"`

	PageLabels        Object `pdf:"optional"`
	Names             Object `pdf:"optional"`
	Dests             Object `pdf:"optional"`
	ViewerPreferences Object `pdf:"optional"`
	OpenAction        Object `pdf:"optional"`
	AA                Object `pdf:"optional"`
	AcroForm          Object `pdf:"optional"`
	StructTreeRoot    Object `pdf:"optional"`
	MarkInfo          Object `pdf:"optional"`
	OutputIntents     Object `pdf:"optional"`

	NeedsRendering Boolean `pdf:"optional"`
}

// ExtractCatalog deserializes dict (the resolved trailer /Root entry) into a
// Catalog via the schema layer. The /Lang tag (a BCP 47 language tag, not
// one of the schema's primitive kinds) is not read here; CatalogLanguage
// parses it.
func ExtractCatalog(r Getter, obj Object) (*Catalog, error) {
	var cat Catalog
	if err := Decode(r, obj, &cat); err != nil {
		return nil, Wrap(err, "ExtractCatalog")
	}
	return &cat, nil
}

// CatalogLanguage resolves dict's /Lang entry, parsing it as a BCP 47
// language tag. The zero language.Tag is returned if /Lang is absent or
// unparseable.
func CatalogLanguage(r Getter, dict Dict) language.Tag {
	raw, ok := dict["Lang"]
	if !ok || raw == nil {
		return language.Tag{}
	}
	s, err := GetTextString(r, raw)
	if err != nil || s == "" {
		return language.Tag{}
	}
	tag, err := language.Parse(string(s))
	if err != nil {
		return language.Tag{}
	}
	return tag
}

// Pages is a PDF page tree internal node (Type /Pages).
type Pages struct {
	_ struct{} `pdf:"Type=Pages"`

	Parent Reference `pdf:"optional"`
	Kids   []Reference
	Count  Integer

	Resources Object    `pdf:"optional"`
	MediaBox  Object     `pdf:"optional"`
	CropBox   Object     `pdf:"optional"`
	Rotate    Integer    `pdf:"optional"`
}

// Page is a single PDF page (Type /Page).
type Page struct {
	_ struct{} `pdf:"Type=Page"`

	Parent Reference

	Resources Dict   `pdf:"optional"`
	MediaBox  Object `pdf:"optional"`
	CropBox   Object `pdf:"optional"`
	Rotate    Integer `pdf:"optional"`

	Contents Object `pdf:"optional"`
	Annots   Object `pdf:"optional"`
}

// ResolvedMediaBox returns p's effective media box, inheriting from the
// page tree's ancestor Pages nodes when the page itself does not set one,
// per PDF 32000-1:2008 Table 30's inheritance rule.
func ResolvedMediaBox(r Getter, page Dict) (*Rectangle, error) {
	node := page
	for i := 0; i < maxRefDepth; i++ {
		if box, ok := node["MediaBox"]; ok {
			return GetRectangle(r, box)
		}
		parentRef, ok := node["Parent"]
		if !ok {
			return nil, nil
		}
		parent, err := GetDict(r, parentRef)
		if err != nil || parent == nil {
			return nil, err
		}
		node = parent
	}
	return nil, &MalformedFileError{Err: ErrReferenceLoop}
}
