package database

// FacadeInterface defines the facade entry point for unit testing and mocking
type FacadeInterface interface {
	// GetBaseline returns the baseline store facade
	GetBaseline() BaselineFacadeInterface
	// GetDispatch returns the alert dispatch record facade
	GetDispatch() DispatchFacadeInterface
	// GetReport returns the report history facade
	GetReport() ReportFacadeInterface
}

// Facade is the unified entry point for database operations
type Facade struct {
	Baseline BaselineFacadeInterface
	Dispatch DispatchFacadeInterface
	Report   ReportFacadeInterface
}

// NewFacade creates a new Facade instance
func NewFacade() *Facade {
	return &Facade{
		Baseline: NewBaselineFacade(),
		Dispatch: NewDispatchFacade(),
		Report:   NewReportFacade(),
	}
}

func (f *Facade) GetBaseline() BaselineFacadeInterface {
	return f.Baseline
}

func (f *Facade) GetDispatch() DispatchFacadeInterface {
	return f.Dispatch
}

func (f *Facade) GetReport() ReportFacadeInterface {
	return f.Report
}

// Global default Facade instance
var defaultFacade FacadeInterface = NewFacade()

// GetFacade returns the default Facade instance
func GetFacade() FacadeInterface {
	return defaultFacade
}

// SetFacade overrides the default Facade, for tests
func SetFacade(f FacadeInterface) {
	defaultFacade = f
}
