package server

import (
	"net/url"
	"sort"
)

// Resource is a backend collection the dashboard exposes
type Resource struct {
	Name  string
	Title string
	// Path is the backend collection path, always with a trailing slash
	Path string
	// ReadOnly resources reject anything but GET
	ReadOnly bool
}

var resourceCatalog = map[string]Resource{
	"countries":         {Name: "countries", Title: "Countries", Path: "/api/countries/"},
	"networks":          {Name: "networks", Title: "Networks", Path: "/api/networks/"},
	"network-configs":   {Name: "network-configs", Title: "Network Configurations", Path: "/api/network-configs/"},
	"phone-numbers":     {Name: "phone-numbers", Title: "Phone Numbers", Path: "/api/phone-numbers/"},
	"devices":           {Name: "devices", Title: "Devices", Path: "/api/devices/"},
	"partners":          {Name: "partners", Title: "Partners", Path: "/api/partners/"},
	"transactions":      {Name: "transactions", Title: "Transactions", Path: "/api/transactions/"},
	"commissions":       {Name: "commissions", Title: "Commissions", Path: "/api/commissions/"},
	"betting-platforms": {Name: "betting-platforms", Title: "Betting Platforms", Path: "/api/betting-platforms/"},
	"sms-logs":          {Name: "sms-logs", Title: "SMS Logs", Path: "/api/sms-logs/", ReadOnly: true},
	"fcm-logs":          {Name: "fcm-logs", Title: "FCM Logs", Path: "/api/fcm-logs/", ReadOnly: true},
}

// LookupResource finds a catalog entry by its route name
func LookupResource(name string) (Resource, bool) {
	r, ok := resourceCatalog[name]
	return r, ok
}

// Resources returns the catalog sorted by title
func Resources() []Resource {
	list := make([]Resource, 0, len(resourceCatalog))
	for _, r := range resourceCatalog {
		list = append(list, r)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Title < list[j].Title })
	return list
}

// backendPath builds the backend path for a collection, an item or an item action
func (r Resource) backendPath(id, action string) string {
	path := r.Path
	if id != "" {
		path += url.PathEscape(id) + "/"
	}
	if action != "" {
		path += url.PathEscape(action) + "/"
	}
	return path
}
