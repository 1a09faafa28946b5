package terms

// categoryOrder fixes the order categories are checked in so that a term
// matching more than one category always resolves the same way.
var categoryOrder = []Category{
	CategoryAnatomy,
	CategoryProcedures,
	CategoryInstruments,
	CategoryPathology,
	CategoryTechniques,
}

// referenceTerms backs the local classification table. A category matches
// when any reference word is a substring of the lowercased candidate.
var referenceTerms = map[Category][]string{
	CategoryAnatomy:     {"colon", "rectum", "anus", "intestine", "mucosa"},
	CategoryProcedures:  {"colectomy", "resection", "anastomosis", "excision"},
	CategoryInstruments: {"forceps", "retractor", "stapler", "scalpel"},
	CategoryPathology:   {"tumor", "polyp", "inflammation", "necrosis"},
	CategoryTechniques:  {"dissection", "ligation", "suturing", "stapling"},
}

// definitions holds offline definitions for common terms. Terms without an
// entry get a definition from the fallback classifier, if one is configured.
var definitions = map[string]string{
	"colon":       "The large intestine, part of the digestive system",
	"rectum":      "The final section of the large intestine",
	"anastomosis": "Surgical connection of two structures or parts",
	"resection":   "Surgical removal of all or part of an organ or structure",
	"polyp":       "Abnormal tissue growth protruding from a mucous membrane",
}
