package forms

// UserSection is one of the user form's conditional cards.
type UserSection string

const (
	SectionDelivery UserSection = "delivery"
	SectionStaff    UserSection = "staff"
)

// UserForm tracks the user form's role toggles. Checking the delivery or
// staff role reveals that role's card, and the form switches to multipart
// encoding as soon as any revealed section could carry a file upload.
type UserForm struct {
	visible   map[UserSection]bool
	files     map[UserSection]bool
	multipart bool
}

// NewUserForm builds a form with both cards hidden.
func NewUserForm() *UserForm {
	return &UserForm{
		visible: map[UserSection]bool{},
		files:   map[UserSection]bool{},
	}
}

// Toggle shows or hides a section's card to match its role checkbox.
func (f *UserForm) Toggle(section UserSection, checked bool) {
	f.visible[section] = checked
	if checked {
		f.multipart = true
	}
}

// AttachFile records that a file input in a section holds a selection.
func (f *UserForm) AttachFile(section UserSection) {
	f.files[section] = true
	f.multipart = true
}

// Visible reports whether a section's card is showing.
func (f *UserForm) Visible(section UserSection) bool {
	return f.visible[section]
}

// Multipart reports whether the form must submit as multipart/form-data:
// true once any section is visible or has a file attached. The flag never
// reverts; a form that needed multipart once keeps it.
func (f *UserForm) Multipart() bool {
	return f.multipart
}
