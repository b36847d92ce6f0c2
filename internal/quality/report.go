package quality

// sampleCap bounds how many row identifiers are kept per rejection reason.
const sampleCap = 20

// EntityReport summarizes the gate's decisions for one entity type.
type EntityReport struct {
	Input    int                 `json:"input"`
	Accepted int                 `json:"accepted"`
	Rejected int                 `json:"rejected"`
	Reasons  map[string]int      `json:"reasons,omitempty"`
	Samples  map[string][]string `json:"samples,omitempty"`
}

// Report is the structured data-quality report for one gate run, keyed by
// entity name (customers, products, transactions, transaction_items).
type Report struct {
	Entities map[string]*EntityReport `json:"entities"`
}

func newReport() *Report {
	return &Report{Entities: make(map[string]*EntityReport)}
}

func (r *Report) entity(name string) *EntityReport {
	er, ok := r.Entities[name]
	if !ok {
		er = &EntityReport{
			Reasons: make(map[string]int),
			Samples: make(map[string][]string),
		}
		r.Entities[name] = er
	}
	return er
}

func (r *Report) accept(entity string) {
	er := r.entity(entity)
	er.Input++
	er.Accepted++
}

func (r *Report) reject(entity, rowID, reason string) {
	er := r.entity(entity)
	er.Input++
	er.Rejected++
	er.Reasons[reason]++
	if len(er.Samples[reason]) < sampleCap {
		er.Samples[reason] = append(er.Samples[reason], rowID)
	}
}

// TotalRejected returns the number of rejected rows across all entities.
func (r *Report) TotalRejected() int {
	n := 0
	for _, er := range r.Entities {
		n += er.Rejected
	}
	return n
}
