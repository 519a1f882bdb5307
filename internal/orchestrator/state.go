package orchestrator

import "github.com/vzahanych/weather-page/internal/weather"

// Result is what one successful fetch produced. The three parts always come
// from the same invocation and carry the inputs that produced them.
type Result struct {
	Location      string             `json:"location"`
	Units         weather.UnitSystem `json:"units"`
	Weather       *weather.Snapshot  `json:"weather"`
	Forecast      *weather.Forecast  `json:"forecast"`
	CoverImageURL string             `json:"cover_image_url,omitempty"`
}

// ViewState is the page. Values are never mutated once published; each
// transition builds a new one.
//
// Location and Units are the latest inputs the user chose. Result may still
// belong to earlier inputs while IsLoading is set.
type ViewState struct {
	Location     string             `json:"location"`
	Units        weather.UnitSystem `json:"units"`
	Result       *Result            `json:"result,omitempty"`
	ErrorMessage string             `json:"error_message,omitempty"`
	IsLoading    bool               `json:"is_loading"`
}

func initialState(units weather.UnitSystem) *ViewState {
	return &ViewState{Units: units}
}
