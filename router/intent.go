package router

// Intent is a typed request from a front-end. The set is closed: only types
// in this package implement it.
type Intent interface {
	isIntent()
}

type (
	StartOrderCreation struct{}
	CreateOrder        struct{ Title string }
	StartMenuEntry     struct{ OrderID int64 }
	AddMenuItem        struct {
		OrderID int64
		Name    string
		Price   int64
	}
	FinishMenuEntry   struct{ OrderID int64 }
	ListOrders        struct{ Mine bool } // Mine: only orders the actor created
	ViewOrder         struct{ OrderID int64 }
	ViewSummary       struct{ OrderID int64 }
	ViewBill          struct{ OrderID int64 }
	ViewSubmittedBill struct{ OrderID int64 }
	ExportReport      struct{ OrderID int64 }

	JoinOrder    struct{ OrderID int64 }
	ChangeName   struct{}
	RegisterName struct{ Name string }
	ViewMenu     struct{ OrderID int64 }
	ViewItem     struct{ OrderID, MenuID int64 }
	AdjustCart   struct {
		OrderID, MenuID int64
		Delta           int64
	}
	ViewCart   struct{ OrderID int64 }
	SubmitCart struct{ OrderID int64 }

	Text   struct{ Input string }
	Cancel struct{}
)

func (StartOrderCreation) isIntent() {}
func (CreateOrder) isIntent()        {}
func (StartMenuEntry) isIntent()     {}
func (AddMenuItem) isIntent()        {}
func (FinishMenuEntry) isIntent()    {}
func (ListOrders) isIntent()         {}
func (ViewOrder) isIntent()          {}
func (ViewSummary) isIntent()        {}
func (ViewBill) isIntent()           {}
func (ViewSubmittedBill) isIntent()  {}
func (ExportReport) isIntent()       {}
func (JoinOrder) isIntent()          {}
func (ChangeName) isIntent()         {}
func (RegisterName) isIntent()       {}
func (ViewMenu) isIntent()           {}
func (ViewItem) isIntent()           {}
func (AdjustCart) isIntent()         {}
func (ViewCart) isIntent()           {}
func (SubmitCart) isIntent()         {}
func (Text) isIntent()               {}
func (Cancel) isIntent()             {}

// Idempotent reports whether dispatching i twice leaves the same state as
// dispatching it once. Front-ends may replay these after an error whose
// outcome is unknown.
func Idempotent(i Intent) bool {
	switch i.(type) {
	case CreateOrder, AddMenuItem, FinishMenuEntry, AdjustCart, SubmitCart, Text:
		return false
	}
	return true
}

// organizerOnly lists intents rejected for any other role.
func organizerOnly(i Intent) bool {
	switch i.(type) {
	case StartOrderCreation, CreateOrder, StartMenuEntry, AddMenuItem, FinishMenuEntry,
		ListOrders, ViewOrder, ViewSummary, ViewBill, ViewSubmittedBill, ExportReport:
		return true
	}
	return false
}
