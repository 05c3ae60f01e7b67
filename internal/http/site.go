package http

// SidebarLink is one entry under a sidebar app.
type SidebarLink struct {
	Label string
	Path  string
}

// SidebarApp groups links in the admin sidebar.
type SidebarApp struct {
	Name  string
	Links []SidebarLink
}

// Site is the admin chrome shared by every page: title and sidebar. It is
// built once in NewServer.
type Site struct {
	Title   string
	Sidebar []SidebarApp
}

func newSite() Site {
	return Site{
		Title: "Family Budget",
		Sidebar: []SidebarApp{
			{
				Name: "Reports",
				Links: []SidebarLink{
					{Label: "Summary Report", Path: "/reports/summary"},
					{Label: "Investment Transactions", Path: "/reports/transactions"},
					{Label: "Vehicle Services", Path: "/reports/vehicles"},
				},
			},
			{
				Name: "Exports",
				Links: []SidebarLink{
					{Label: "Summary (xlsx)", Path: "/reports/summary.xlsx"},
					{Label: "Transactions (xlsx)", Path: "/reports/transactions.xlsx"},
				},
			},
		},
	}
}

// page is the data every HTML template receives.
type page struct {
	Site   Site
	Title  string
	Active string
	Query  map[string]string
	Data   any
}
