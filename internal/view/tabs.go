package view

// Tabs switches between content sections. A section named "x" pairs the
// element "xContent" with the tab "xTab".
type Tabs struct {
	doc *Document
}

// NewTabs binds a tab switcher to a document.
func NewTabs(doc *Document) *Tabs {
	return &Tabs{doc: doc}
}

// ShowContent hides every content section and week section, resets every
// "*Tab" element and activates the requested section.
func (t *Tabs) ShowContent(section string) {
	for _, id := range t.doc.IDsWithClass("content-section") {
		t.doc.AddClass(id, "hidden")
	}
	for _, id := range t.doc.IDsWithClass("week-content") {
		t.doc.AddClass(id, "hidden")
	}
	for _, id := range t.doc.IDsWithSuffix("Tab") {
		t.doc.RemoveClass(id, "active", "text-white", "border-accent")
		t.doc.AddClass(id, "text-slate-400", "border-transparent")
	}

	if t.doc.Has(section + "Content") {
		t.doc.RemoveClass(section+"Content", "hidden")
	}
	if t.doc.Has(section + "Tab") {
		t.doc.RemoveClass(section+"Tab", "text-slate-400", "border-transparent")
		t.doc.AddClass(section+"Tab", "active", "text-white", "border-accent")
	}
}

// ShowWeekContent is ShowContent restricted to week sections and week tabs.
func (t *Tabs) ShowWeekContent(section string) {
	for _, id := range t.doc.IDsWithClass("week-content") {
		t.doc.AddClass(id, "hidden")
	}
	for _, id := range t.doc.IDsWithClass("week-tab") {
		t.doc.RemoveClass(id, "active", "text-white")
		t.doc.AddClass(id, "text-slate-400")
	}

	if t.doc.Has(section + "Content") {
		t.doc.RemoveClass(section+"Content", "hidden")
	}
	if t.doc.Has(section + "Tab") {
		t.doc.RemoveClass(section+"Tab", "text-slate-400")
		t.doc.AddClass(section+"Tab", "active", "text-white")
	}
}

// Active reports whether the section's tab is active.
func (t *Tabs) Active(section string) bool {
	return t.doc.HasClass(section+"Tab", "active")
}
