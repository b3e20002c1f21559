package api

// Form is a protocol binding of an interaction affordance.
// Forms are created by the TD parser with base-resolved hrefs and are not modified afterwards.
type Form struct {
	// Href is the absolute URI of the resource. Its scheme selects the protocol.
	Href string `json:"href"`
	// MediaType of the payload. Parsed forms always carry one, defaulting to DefaultMediaType.
	MediaType string `json:"contentType,omitempty"`
	// Op lists the operation types this form supports, eg readproperty
	Op []string `json:"op,omitempty"`
	// Subprotocol, eg longpoll or websub
	Subprotocol string `json:"subprotocol,omitempty"`
	// Hints holds the remaining protocol specific form fields, eg htv:methodName or mqv:topic
	Hints map[string]interface{} `json:"-"`
}

// Hint returns the string value of a protocol hint or "" if not set
func (form *Form) Hint(name string) string {
	if form.Hints == nil {
		return ""
	}
	if val, ok := form.Hints[name].(string); ok {
		return val
	}
	return ""
}

// HasOp returns true if the form supports the given operation.
// Forms without op support every operation of their affordance.
func (form *Form) HasOp(op string) bool {
	if len(form.Op) == 0 {
		return true
	}
	for _, formOp := range form.Op {
		if formOp == op {
			return true
		}
	}
	return false
}

// Content is an encoded payload tagged with its media type.
// An empty MediaType means the transport did not report one.
type Content struct {
	MediaType string
	Body      []byte
}
