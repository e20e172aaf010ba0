package output

import "github.com/amishk599/jobdigest/internal/model"

// Header is the column order shared by every tabular sink.
var Header = []string{"New", "Title", "Company", "Location", "RegionGroup", "Type", "Source", "URL"}

// Row renders one record in Header order.
func Row(r model.JobRecord) []string {
	isNew := "No"
	if r.IsNew {
		isNew = "Yes"
	}
	return []string{isNew, r.Title, r.Company, r.Location, r.Region, r.Type, r.Source, r.URL}
}
