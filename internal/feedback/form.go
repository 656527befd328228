package feedback

import (
	"net/url"
	"sync"
)

// Form holds the field values of one form instance and its in-flight flag.
// While a submission is in flight the form refuses another one.
type Form struct {
	mu       sync.Mutex
	values   url.Values
	inFlight bool
}

// Begin records the submitted values and disables the form. It returns false
// when a submission is already in flight.
func (f *Form) Begin(values url.Values) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.inFlight {
		return false
	}
	f.inFlight = true
	f.values = cloneValues(values)
	return true
}

// Finish re-enables the form. Fields are cleared only after a successful round trip.
func (f *Form) Finish(ok bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.inFlight = false
	if ok {
		f.values = nil
	}
}

func (f *Form) Reset() {
	f.mu.Lock()
	f.values = nil
	f.mu.Unlock()
}

func (f *Form) Values() url.Values {
	f.mu.Lock()
	defer f.mu.Unlock()
	return cloneValues(f.values)
}

func (f *Form) InFlight() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.inFlight
}

// Snapshot flattens the first value of each field for JSON responses.
func (f *Form) Snapshot() map[string]string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make(map[string]string, len(f.values))
	for k := range f.values {
		out[k] = f.values.Get(k)
	}
	return out
}

func cloneValues(v url.Values) url.Values {
	if v == nil {
		return nil
	}
	out := make(url.Values, len(v))
	for k, vs := range v {
		out[k] = append([]string(nil), vs...)
	}
	return out
}
