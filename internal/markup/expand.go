package markup

import (
	"errors"

	"github.com/teambition/rrule-go"

	appLog "github.com/serma100000/Union-Beach-Library/internal/log"
	"github.com/serma100000/Union-Beach-Library/internal/model"
)

const defaultMaxOccurrences = 52

// expandRecurring turns a recurring program (e.g. weekly story time) into
// one record per occurrence, starting at base.Date. Occurrence ids are
// "<base id>-<YYYYMMDD>". At most max occurrences are produced; hitting the
// cap is logged.
func expandRecurring(base model.EventRecord, rule string, max int) ([]model.EventRecord, error) {
	r, err := rrule.StrToRRule(rule)
	if err != nil {
		return nil, err
	}
	r.DTStart(base.Date)

	out := make([]model.EventRecord, 0)
	next := r.Iterator()
	for {
		t, ok := next()
		if !ok {
			break
		}
		if len(out) == max {
			appLog.Error("markup: truncated recurring program due to cap",
				errors.New("max occurrences reached"),
				"id", base.ID,
				"cap", max,
			)
			break
		}
		occ := base
		occ.Date = t.In(base.Date.Location())
		occ.ID = base.ID + "-" + occ.Date.Format("20060102")
		out = append(out, occ)
	}

	if len(out) == 0 {
		return nil, errors.New("recurrence rule produced no occurrences")
	}
	return out, nil
}
