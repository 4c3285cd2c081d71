package portal

const (
	DefaultLoginURL   = "https://thetanglinclub.clubhouseonline-e3.net/login.aspx"
	DefaultBookingURL = "https://thetanglinclub.clubhouseonline-e3.net/CMSModules/CHO/CourtManagement/CourtBooking.aspx"
)

const loginChunk = "#p_lt_PageContent_pageplaceholder_p_lt_zoneRight_CHOLogin_LoginControl_ctl00_Login1_"

// Selectors are the CSS selectors for every element the booking flow touches.
type Selectors struct {
	// login page
	Username string
	Password string
	Submit   string
	SignedIn string

	// booking page
	BookingLoaded  string
	ScheduleLoaded string
	Dropdown       string
	DropdownOpen   string
	DropdownOption string
	DateCell       string
	ActiveDate     string

	// slot booking
	SlotTile      string
	BookNow       string
	SuccessBanner string
}

func DefaultSelectors() Selectors {
	return Selectors{
		Username: loginChunk + "UserName",
		Password: loginChunk + "Password",
		Submit:   loginChunk + "LoginButton",
		SignedIn: "#p_lt_Header_MyProfilePages_divSignedIn",

		BookingLoaded:  "div.date-selector.ng-isolate-scope",
		ScheduleLoaded: "div.container.slick-initialized.slick-slider",
		Dropdown:       "a.dropdown-display.ng-binding",
		DropdownOpen:   "div.dropdown.ng-isolate-scope.ng-not-empty.ng-valid.open",
		DropdownOption: "li.ng-binding.ng-scope",
		DateCell:       "div.date.ng-binding",
		ActiveDate:     "div.date.ng-binding.active",

		SlotTile:      "div.start-time.ng-binding.ng-scope",
		BookNow:       "a.btn.btn-primary.ng-binding",
		SuccessBanner: "h1.banner-title.ng-scope",
	}
}

// Court labels shown by the court type dropdown.
const (
	CourtOutdoorTennis = "Tennis Courts - Outdoor Tennis Court."
	CourtIndoorTennis  = "Tennis Courts - Indoor Tennis Court."
	CourtSinglesSquash = "Squash Courts - Singles Squash Courts"
	CourtDoublesSquash = "Squash Courts - Doubles Squash Courts"
)

// FilterAvailableOnly narrows the schedule table to bookable slots.
const FilterAvailableOnly = "Only Show Available"

// Control is one dropdown on the booking page, identified by the labels it can show.
type Control struct {
	Name   string
	Labels []string
}

func (c Control) Owns(label string) bool {
	for _, l := range c.Labels {
		if l == label {
			return true
		}
	}
	return false
}

var (
	CourtControl = Control{
		Name:   "court type",
		Labels: []string{CourtOutdoorTennis, CourtIndoorTennis, CourtSinglesSquash, CourtDoublesSquash},
	}
	DurationControl = Control{
		Name:   "duration",
		Labels: []string{"1 hour", "2 hours"},
	}
	FilterControl = Control{
		Name:   "availability filter",
		Labels: []string{FilterAvailableOnly, "All times", "Morning", "Afternoon", "Evening"},
	}
)

// CourtLabel is the court dropdown label for indoor or outdoor tennis.
func CourtLabel(indoor bool) string {
	if indoor {
		return CourtIndoorTennis
	}
	return CourtOutdoorTennis
}
