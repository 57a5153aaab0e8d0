package feedback

// State is the view the feedback form shows.
type State string

const (
	StateEditing   State = "editing"
	StateSubmitted State = "submitted"
)

// Form is the two-state feedback form. The zero value is an empty form in
// the editing state.
type Form struct {
	submitted bool
	entry     Entry
}

// State reports which view the form is in.
func (f *Form) State() State {
	if f.submitted {
		return StateSubmitted
	}
	return StateEditing
}

// Entry returns the fields currently held by the form.
func (f *Form) Entry() Entry {
	return f.entry
}

// Fill replaces the fields without submitting.
func (f *Form) Fill(entry Entry) {
	if f.submitted {
		return
	}
	f.entry = entry
}

// MarkSubmitted switches to the confirmation view for entry.
func (f *Form) MarkSubmitted(entry Entry) {
	f.entry = entry
	f.submitted = true
}

// Reset returns to an empty editing form ("Submit More Feedback").
func (f *Form) Reset() {
	*f = Form{}
}
