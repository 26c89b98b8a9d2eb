package project

// Intent is a discrete command for the model. The presentation layer only
// emits intents; it never mutates model state directly.
type Intent interface {
	intent()
}

type (
	// OpenFolder opens Path as the project. An empty Path (dialog cancelled)
	// does nothing.
	OpenFolder    struct{ Path string }
	CloseFolder   struct{}
	CreateProject struct{ Path string }

	NewFile   struct{ Parent string }
	NewFolder struct{ Parent string }
	Rename    struct{ From, NewName string }
	Delete    struct{ Path string }

	ToggleFolder struct{ ID string }
	Refresh      struct{}

	OpenMap      struct{ Path string }
	SaveActive   struct{}
	SaveAndClose struct{ Path string }
	CloseMap     struct{ Path string }
	RequestClose struct{ Path string }
	ResolveClose struct {
		ID     string
		Choice CloseChoice
	}
	MarkDirty struct{ Path string }

	BeginRename  struct{ Path, Name string }
	EditRename   struct{ Buffer string }
	CommitRename struct{}
	CancelRename struct{}

	SelectTile struct{ X, Y float32 }
	SetView    struct {
		Width, Height float32
		PanX, PanY    float32
		Zoom          float32
	}
)

// CloseChoice answers an unsaved-changes prompt.
type CloseChoice int

const (
	ChoiceCancel CloseChoice = iota
	ChoiceSave
	ChoiceDiscard
)

func (c CloseChoice) String() string {
	switch c {
	case ChoiceSave:
		return "save"
	case ChoiceDiscard:
		return "discard"
	default:
		return "cancel"
	}
}

// ParseChoice maps "save"/"discard" to their choice; anything else cancels.
func ParseChoice(s string) CloseChoice {
	switch s {
	case "save":
		return ChoiceSave
	case "discard":
		return ChoiceDiscard
	default:
		return ChoiceCancel
	}
}

func (OpenFolder) intent()    {}
func (CloseFolder) intent()   {}
func (CreateProject) intent() {}
func (NewFile) intent()       {}
func (NewFolder) intent()     {}
func (Rename) intent()        {}
func (Delete) intent()        {}
func (ToggleFolder) intent()  {}
func (Refresh) intent()       {}
func (OpenMap) intent()       {}
func (SaveActive) intent()    {}
func (SaveAndClose) intent()  {}
func (CloseMap) intent()      {}
func (RequestClose) intent()  {}
func (ResolveClose) intent()  {}
func (MarkDirty) intent()     {}
func (BeginRename) intent()   {}
func (EditRename) intent()    {}
func (CommitRename) intent()  {}
func (CancelRename) intent()  {}
func (SelectTile) intent()    {}
func (SetView) intent()       {}
