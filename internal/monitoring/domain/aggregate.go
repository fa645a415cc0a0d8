package monitoring

// Kpis holds obligation counts for one operational day. The four status
// buckets are mutually exclusive and sum to Total; Urgent overlays the
// Current bucket.
type Kpis struct {
	Total     int `json:"total"`
	Completed int `json:"completed"`
	Current   int `json:"current"`
	Upcoming  int `json:"upcoming"`
	Missed    int `json:"missed"`
	Urgent    int `json:"urgent"`
}

// Aggregate folds classified obligations into KPI counts in one pass.
func Aggregate(list []ClassifiedObligation) Kpis {
	var kpis Kpis
	for _, item := range list {
		kpis.Total++
		switch item.Status {
		case ClassCompleted:
			kpis.Completed++
		case ClassCurrent:
			kpis.Current++
		case ClassUpcoming:
			kpis.Upcoming++
		case ClassMissed:
			kpis.Missed++
		}
		if item.IsUrgent {
			kpis.Urgent++
		}
	}
	return kpis
}
