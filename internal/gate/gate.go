// Package gate decides whether a workflow item may move to its approved or
// completed state. An item passes when every required entry is satisfied.
package gate

// ReasonIncomplete is the message returned with every declined check.
const ReasonIncomplete = "all required items must be completed before proceeding"

// Item is one entry of a gated collection: a document to upload or a task
// to tick off.
type Item struct {
	Name      string
	Required  bool
	Satisfied bool
}

// Result is the outcome of a check. A declined result is not an error; the
// caller keeps the current state and reports Reason to the user.
type Result struct {
	Allowed bool     `json:"allowed"`
	Reason  string   `json:"reason,omitempty"`
	Missing []string `json:"missing,omitempty"`
}

// Check allows the transition iff every required item is satisfied. Items
// that are not required never block.
func Check(items []Item) Result {
	var missing []string
	for _, it := range items {
		if it.Required && !it.Satisfied {
			missing = append(missing, it.Name)
		}
	}
	if len(missing) > 0 {
		return Result{Allowed: false, Reason: ReasonIncomplete, Missing: missing}
	}
	return Result{Allowed: true}
}

// CheckFunc adapts any collection to Check.
func CheckFunc[T any](items []T, toItem func(T) Item) Result {
	conv := make([]Item, len(items))
	for i, it := range items {
		conv[i] = toItem(it)
	}
	return Check(conv)
}
