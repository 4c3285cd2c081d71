// Package portaltest provides an in-memory booking portal that satisfies
// portal.Driver. Pages are rendered to HTML and queried with goquery, so the
// production CSS selectors are exercised against realistic markup.
package portaltest

import (
	"context"
	"fmt"
	"html"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/example/court-scheduler/internal/domain/portal"
)

const (
	LoginURL   = "https://portal.test/login.aspx"
	BookingURL = "https://portal.test/CourtBooking.aspx"

	loginIDPrefix = "p_lt_PageContent_pageplaceholder_p_lt_zoneRight_CHOLogin_LoginControl_ctl00_Login1_"
)

// Dropdown keys.
const (
	Court    = "court"
	Duration = "duration"
	Filter   = "filter"
)

var dropdownOrder = []string{Court, Duration, Filter}

// Tile is one rendered slot on the schedule table.
type Tile struct {
	Label       string // e.g. "9:00 AM"
	Confirmable bool   // the Book Now button shows after opening the tile
	Succeeds    bool   // the success banner shows after Book Now
}

// Portal is a scripted booking site. Zero values are filled in by New.
type Portal struct {
	Username string
	Password string

	Dates      []string          // date strip labels
	ActiveDate string            // currently selected date cell
	Values     map[string]string // current dropdown labels
	Options    map[string][]string
	Slots      map[string][]Tile // tiles per date label

	// Failure switches.
	BookingNeverLoads  bool
	ScheduleNeverLoads bool
	HideDropdown       string

	// Observed behaviour.
	Clicks int
	Calls  []string
	Typed  map[string]string
	Booked []string

	page     string
	open     string
	overlay  bool
	loggedIn bool
	tileDate string
	tileIdx  int
}

// New returns a portal with valid credentials member/secret, outdoor 1 hour
// all-times defaults and a date strip of days starting at first.
func New(first time.Time, days int) *Portal {
	p := &Portal{
		Username: "member",
		Password: "secret",
		Values: map[string]string{
			Court:    portal.CourtOutdoorTennis,
			Duration: "1 hour",
			Filter:   "All times",
		},
		Options: map[string][]string{
			Court:    append([]string(nil), portal.CourtControl.Labels...),
			Duration: append([]string(nil), portal.DurationControl.Labels...),
			Filter:   append([]string(nil), portal.FilterControl.Labels...),
		},
		Slots: map[string][]Tile{},
		Typed: map[string]string{},
		page:  "blank",
	}
	for i := 0; i < days; i++ {
		p.Dates = append(p.Dates, first.AddDate(0, 0, i).Format("Jan 2"))
	}
	if len(p.Dates) > 0 {
		p.ActiveDate = p.Dates[0]
	}
	return p
}

// SignIn skips the login form.
func (p *Portal) SignIn() { p.loggedIn = true }

// Count returns how many recorded calls start with prefix.
func (p *Portal) Count(prefix string) int {
	n := 0
	for _, c := range p.Calls {
		if strings.HasPrefix(c, prefix) {
			n++
		}
	}
	return n
}

func (p *Portal) Navigate(_ context.Context, url string) error {
	p.Calls = append(p.Calls, "navigate "+url)
	p.open = ""
	p.overlay = false
	p.Typed = map[string]string{}
	switch url {
	case LoginURL:
		p.page = "login"
	case BookingURL:
		if p.loggedIn {
			p.page = "booking"
		} else {
			p.page = "login"
		}
	default:
		p.page = "blank"
	}
	return nil
}

func (p *Portal) Locate(_ context.Context, selector string, _ time.Duration) (portal.Element, error) {
	p.Calls = append(p.Calls, "locate "+selector)
	sel, err := p.find(selector)
	if err != nil {
		return nil, err
	}
	if sel.Length() == 0 {
		return nil, fmt.Errorf("%w: %s", portal.ErrTimeout, selector)
	}
	return newElement(selector, 0, sel.First()), nil
}

func (p *Portal) ListElements(_ context.Context, selector string) ([]portal.Element, error) {
	p.Calls = append(p.Calls, "list "+selector)
	sel, err := p.find(selector)
	if err != nil {
		return nil, err
	}
	out := make([]portal.Element, 0, sel.Length())
	sel.Each(func(i int, s *goquery.Selection) {
		out = append(out, newElement(selector, i, s))
	})
	return out, nil
}

func (p *Portal) Click(_ context.Context, el portal.Element) error {
	e, ok := el.(*element)
	if !ok {
		return fmt.Errorf("portaltest: foreign element %T", el)
	}
	p.Clicks++
	p.Calls = append(p.Calls, "click "+e.action)
	p.dispatch(e.action)
	return nil
}

func (p *Portal) SendKeys(_ context.Context, el portal.Element, text string) error {
	e, ok := el.(*element)
	if !ok {
		return fmt.Errorf("portaltest: foreign element %T", el)
	}
	p.Calls = append(p.Calls, "type "+e.field)
	p.Typed[e.field] += text
	return nil
}

func (p *Portal) ReadText(_ context.Context, el portal.Element) (string, error) {
	e, ok := el.(*element)
	if !ok {
		return "", fmt.Errorf("portaltest: foreign element %T", el)
	}
	return e.text, nil
}

func (p *Portal) find(selector string) (*goquery.Selection, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(p.render()))
	if err != nil {
		return nil, err
	}
	return doc.Find(selector), nil
}

func (p *Portal) dispatch(action string) {
	kind, arg, _ := strings.Cut(action, ":")
	switch kind {
	case "login":
		if p.Typed["username"] == p.Username && p.Typed["password"] == p.Password {
			p.loggedIn = true
			p.page = "home"
		}
	case "date":
		p.ActiveDate = arg
	case "open":
		p.open = arg
	case "pick":
		name, label, _ := strings.Cut(arg, ":")
		p.Values[name] = label
		p.open = ""
	case "tile":
		date, idx, _ := strings.Cut(arg, "|")
		p.tileDate = date
		p.tileIdx, _ = strconv.Atoi(idx)
		p.overlay = true
	case "book":
		t := p.Slots[p.tileDate][p.tileIdx]
		p.overlay = false
		if t.Succeeds {
			p.Booked = append(p.Booked, p.tileDate+" "+t.Label)
			p.page = "success"
		}
	}
}

func (p *Portal) render() string {
	var b strings.Builder
	b.WriteString("<html><body>")
	switch p.page {
	case "login":
		fmt.Fprintf(&b, `<input id="%sUserName" data-field="username"/>`, loginIDPrefix)
		fmt.Fprintf(&b, `<input id="%sPassword" data-field="password" type="password"/>`, loginIDPrefix)
		fmt.Fprintf(&b, `<input id="%sLoginButton" type="submit" data-action="login"/>`, loginIDPrefix)
	case "home":
		b.WriteString(`<div id="p_lt_Header_MyProfilePages_divSignedIn">Signed in</div>`)
	case "booking":
		p.renderBooking(&b)
		// an opened tile shows its booking panel over the schedule; a failed
		// confirmation dismisses it
		if p.overlay && p.Slots[p.tileDate][p.tileIdx].Confirmable {
			b.WriteString(`<a class="btn btn-primary ng-binding" data-action="book">Book Now</a>`)
		}
	case "success":
		b.WriteString(`<h1 class="banner-title ng-scope">Booking Confirmed</h1>`)
	}
	b.WriteString("</body></html>")
	return b.String()
}

func (p *Portal) renderBooking(b *strings.Builder) {
	if p.BookingNeverLoads {
		return
	}
	b.WriteString(`<div class="date-selector ng-isolate-scope">`)
	for _, d := range p.Dates {
		class := "date ng-binding"
		if d == p.ActiveDate {
			class += " active"
		}
		fmt.Fprintf(b, `<div class="%s" data-action="date:%s">%s</div>`, class, attr(d), html.EscapeString(d))
	}
	b.WriteString(`</div>`)

	for _, name := range dropdownOrder {
		if name == p.HideDropdown {
			continue
		}
		class := "dropdown ng-isolate-scope ng-not-empty ng-valid"
		if p.open == name {
			class += " open"
		}
		fmt.Fprintf(b, `<div class="%s"><a class="dropdown-display ng-binding" data-action="open:%s">%s</a><ul>`,
			class, name, html.EscapeString(p.Values[name]))
		if p.open == name {
			for _, o := range p.Options[name] {
				fmt.Fprintf(b, `<li class="ng-binding ng-scope" data-action="pick:%s:%s">%s</li>`, name, attr(o), html.EscapeString(o))
			}
		}
		b.WriteString(`</ul></div>`)
	}

	if p.ScheduleNeverLoads {
		return
	}
	b.WriteString(`<div class="container slick-initialized slick-slider">`)
	for i, t := range p.Slots[p.ActiveDate] {
		fmt.Fprintf(b, `<div class="start-time ng-binding ng-scope" data-action="tile:%s|%d">%s</div>`,
			attr(p.ActiveDate), i, html.EscapeString(t.Label))
	}
	b.WriteString(`</div>`)
}

func attr(s string) string { return html.EscapeString(s) }

type element struct {
	id     string
	action string
	field  string
	text   string
}

func newElement(selector string, i int, s *goquery.Selection) *element {
	id, ok := s.Attr("id")
	if !ok {
		id = fmt.Sprintf("%s[%d]", selector, i)
	}
	action, _ := s.Attr("data-action")
	field, _ := s.Attr("data-field")
	return &element{
		id:     id,
		action: action,
		field:  field,
		text:   strings.TrimSpace(s.Text()),
	}
}

func (e *element) ID() string { return e.id }

var _ portal.Driver = (*Portal)(nil)
