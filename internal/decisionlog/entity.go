// Package decisionlog records every evaluated command and its outcome
// for later audit.
package decisionlog

import "time"

type Record struct {
	ID          string    `yaml:"id" json:"id"`
	Command     string    `yaml:"command" json:"command"`
	Decision    string    `yaml:"decision" json:"decision"`
	Mode        string    `yaml:"mode" json:"mode"`
	MatchedRule string    `yaml:"matched_rule,omitempty" json:"matchedRule,omitempty"`
	MatchedList string    `yaml:"matched_list,omitempty" json:"matchedList,omitempty"`
	CreatedAt   time.Time `yaml:"created_at" json:"createdAt"`
}
