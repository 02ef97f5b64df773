package model

// AccessStatus is the access service's verdict for one owner.
type AccessStatus struct {
	HasAccess             bool `json:"has_access"`
	HasActiveSubscription bool `json:"has_active_subscription"`
	OnTrial               bool `json:"on_trial"`
	Plan                  Plan `json:"plan"`
}

// ServicePermission reports whether an owner may create another service
// under the plan's ceiling.
type ServicePermission struct {
	Allowed bool `json:"allowed"`
	Plan    Plan `json:"plan"`
	Limit   int  `json:"limit"`
	Used    int  `json:"used"`
}
