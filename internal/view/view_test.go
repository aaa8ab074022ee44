package view

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fpc-portal/internal/model"
	"fpc-portal/internal/navigation"
)

func renderPage(t *testing.T, name string, page Page) (int, string) {
	t.Helper()

	r, err := New()
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	r.Render(rec, http.StatusOK, name, page)
	return rec.Code, rec.Body.String()
}

func signedIn(role model.Role) Page {
	user := model.UserIdentity{ID: "rm@fpc.test", Email: "rm@fpc.test", FirstName: "Asha", LastName: "Patil", Role: role}
	return Page{User: &user, Nav: navigation.Resolve(role), CSRFField: `<input type="hidden" name="csrf_token" value="t">`}
}

func TestEveryPageRenders(t *testing.T) {
	t.Parallel()

	created := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	states := []model.StateDistricts{{State: "Maharashtra", Districts: []string{"Nashik", "Pune"}}}

	cases := []struct {
		name string
		page string
		data any
		want string
	}{
		{"login", PageLogin, LoginData{Email: "rm@fpc.test"}, `value="rm@fpc.test"`},
		{"dashboard", PageDashboard, model.Dashboard{
			Cards:       []model.StatCard{{Key: "total_fpos", Label: "Total FPOs", Value: 1234567}},
			AnnualStats: []model.AnnualStat{{FinancialYear: "2023-24", TotalTurnover: 150000, RecordCount: 3}},
		}, "12,34,567"},
		{"fpo list", PageFPOList, FPOListData{
			Heading:   "Pending Approvals",
			Action:    "/fpo/pending",
			Items:     []model.FPO{{ID: 7, Name: "Kisan Samruddhi", Status: "pending"}},
			Statuses:  []string{"pending", "approved"},
			CanDecide: true,
		}, `action="/fpo/7/approve"`},
		{"fpo detail", PageFPODetail, FPODetailData{
			FPO: model.FPO{
				ID: 7, Name: "Kisan Samruddhi", Status: "pending", CreatedAt: &created,
				BoardMembers: []model.BoardMember{{Name: "R. Jadhav", Designation: "Chairperson"}},
			},
			CanDecide: true,
		}, "R. Jadhav"},
		{"register step 1", PageFPORegister, RegisterData{Step: 1, States: states, BoardRows: []model.BoardMember{{}}}, `name="registration_number"`},
		{"register step 2", PageFPORegister, RegisterData{
			Step: 2, Reg: model.FPORegistration{State: "Maharashtra", District: "Pune"}, States: states, BoardRows: []model.BoardMember{{}},
		}, `<option value="Pune" selected>`},
		{"register step 3", PageFPORegister, RegisterData{
			Step: 3, States: states, BoardRows: []model.BoardMember{{Name: "A"}, {Name: "B"}},
		}, `value="B"`},
		{"agri list", PageAgriList, AgriListData{
			Records:   []model.AgriBusinessRecord{{FPOID: 7, FinancialYear: "2023-24", Commodity: "Onion", Quantity: 12.5, Unit: "quintal", Turnover: 2500.75}},
			Years:     []string{"2023-24"},
			Selected:  "2023-24",
			CanCreate: true,
		}, "₹2,500.75"},
		{"agri new", PageAgriNew, AgriNewData{FPOs: []model.FPO{{ID: 3, Name: "Sahyadri"}}}, "Sahyadri"},
		{"districts", PageDistricts, DistrictsData{Groups: states}, "Nashik"},
		{"error", PageError, ErrorData{Status: 403, Heading: "Access denied", Message: "No."}, "Access denied"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			page := signedIn(model.RoleSuperAdmin)
			page.Data = tc.data

			code, body := renderPage(t, tc.page, page)
			require.Equal(t, http.StatusOK, code)
			assert.Contains(t, body, tc.want)
			assert.Contains(t, body, "Asha Patil")
		})
	}
}

func TestLayoutHighlightsActiveEntryAndHidesNavWhenAnonymous(t *testing.T) {
	t.Parallel()

	page := signedIn(model.RoleRegionalManager)
	page.Active = navigation.PathPending
	page.Data = FPOListData{Heading: "Pending Approvals", Action: navigation.PathPending}

	_, body := renderPage(t, PageFPOList, page)
	assert.Contains(t, body, `<li class="active">`)
	assert.Contains(t, body, "Regional Manager")
	assert.NotContains(t, body, "/reference/districts")

	_, anon := renderPage(t, PageLogin, Page{Data: LoginData{}})
	assert.NotContains(t, anon, "Sign out")
	assert.NotContains(t, anon, `class="sidebar"`)
}

func TestValidationErrorsRenderInline(t *testing.T) {
	t.Parallel()

	page := Page{
		Data:   LoginData{},
		Errors: map[string]string{"email": "Email is required"},
		Flash:  &Flash{Kind: FlashError, Message: "Incorrect email or password"},
	}

	_, body := renderPage(t, PageLogin, page)
	assert.Contains(t, body, "Email is required")
	assert.Contains(t, body, `aria-invalid="true"`)
	assert.Contains(t, body, "flash-error")
	assert.Contains(t, body, "Incorrect email or password")
}

func TestRenderUnknownTemplate(t *testing.T) {
	t.Parallel()

	code, _ := renderPage(t, "missing.html", Page{})
	require.Equal(t, http.StatusInternalServerError, code)
}

func TestMarkdownEscapesRawHTML(t *testing.T) {
	t.Parallel()

	out := string(renderMarkdown("**Approved** after visit\nsecond line <script>alert(1)</script>"))
	assert.Contains(t, out, "<strong>Approved</strong>")
	assert.Contains(t, out, "<br>")
	assert.NotContains(t, out, "<script>")
}

func TestFormatNumber(t *testing.T) {
	t.Parallel()

	cases := map[int64]string{
		0:         "0",
		999:       "999",
		1000:      "1,000",
		123456:    "1,23,456",
		1234567:   "12,34,567",
		-1234567:  "-12,34,567",
		100000000: "10,00,00,000",
	}
	for in, want := range cases {
		assert.Equal(t, want, formatNumber(in), "input %d", in)
	}
}

func TestFormatMoneyAndDate(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "₹1,234.50", formatMoney(1234.5))
	assert.Equal(t, "-₹10.00", formatMoney(-9.999))
	assert.Equal(t, "₹0.00", formatMoney(0))

	assert.Equal(t, "-", formatDate(nil))
	d := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, "01 Mar 2024", formatDate(&d))
}

func TestFlashRoundTrip(t *testing.T) {
	t.Parallel()

	f := NewFlasher([]byte(strings.Repeat("k", 64)), false)

	set := httptest.NewRecorder()
	f.Set(set, FlashSuccess, "FPO #7 approved.")
	cookies := set.Result().Cookies()
	require.Len(t, cookies, 1)

	req := httptest.NewRequest(http.MethodGet, "/fpo/pending", nil)
	req.AddCookie(cookies[0])
	pop := httptest.NewRecorder()

	flash := f.Pop(pop, req)
	require.NotNil(t, flash)
	require.Equal(t, FlashSuccess, flash.Kind)
	require.Equal(t, "FPO #7 approved.", flash.Message)

	cleared := pop.Result().Cookies()
	require.Len(t, cleared, 1)
	require.Equal(t, -1, cleared[0].MaxAge)

	none := f.Pop(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	require.Nil(t, none)
}

func TestFlashRejectsForgedCookie(t *testing.T) {
	t.Parallel()

	f := NewFlasher([]byte(strings.Repeat("k", 64)), false)
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: flashCookieName, Value: "forged"})

	require.Nil(t, f.Pop(httptest.NewRecorder(), req))
}
