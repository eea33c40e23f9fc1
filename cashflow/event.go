// Copyright 2024
// SPDX-License-Identifier: Apache-2.0
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package cashflow defines the event and amortization data model the
// calculation engine operates on: typed events with tagged
// extensions, ordered lists with saved/restored cursors, balance
// results, and statistic accumulators.
package cashflow

import (
	json "github.com/goccy/go-json"
	"github.com/penny-vault/pvcashflow/dates"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// Descriptor is a named attribute attached to an event or cashflow.
// A descriptor whose Expression is set is evaluated during expansion;
// evaluation failures are written into Value as an error-prefixed
// string rather than failing the cashflow.
type Descriptor struct {
	Group      string `json:"group"`
	Name       string `json:"name"`
	DescType   string `json:"descType"`
	Code       string `json:"code"`
	Value      string `json:"value"`
	Expression string `json:"expression"`
	Propagate  bool   `json:"propagate"`
}

// Parameter is a typed symbol made available to descriptor and value
// expressions.
type Parameter struct {
	Name     string          `json:"name"`
	IntValue int             `json:"intValue"`
	DecValue decimal.Decimal `json:"decValue"`
	StrValue string          `json:"strValue"`
}

// Event is one entry of an event list. Periods, Intervals, Frequency,
// and SkipMask describe how the expander lowers the event into
// amortization rows.
type Event struct {
	EventDate dates.Date `json:"eventDate"`
	OrigDate  dates.Date `json:"origDate"`
	SortOrder int        `json:"sortOrder"`

	Value            decimal.Decimal `json:"value"`
	ValueExpr        string          `json:"valueExpr"`
	ValueExprBalance bool            `json:"valueExprBalance"`

	Periods     int    `json:"periods"`
	PeriodsExpr string `json:"periodsExpr"`
	DateExpr    string `json:"dateExpr"`

	Intervals   int             `json:"intervals"`
	Frequency   dates.Frequency `json:"frequency"`
	SkipMask    uint64          `json:"skipMask"`
	SkipMaskLen int             `json:"skipMaskLen"`
	EOM         bool            `json:"eom"`

	Extension   Extension    `json:"-"`
	Parameters  []Parameter  `json:"parameters,omitempty"`
	Descriptors []Descriptor `json:"descriptors,omitempty"`

	EventName string `json:"eventName"`
	NextName  string `json:"nextName"`
}

// Clone deep-copies the event, including its extension, parameters,
// and descriptors.
func (ev *Event) Clone() *Event {
	clone := *ev
	if ev.Extension != nil {
		clone.Extension = ev.Extension.Clone()
	}
	clone.Parameters = append([]Parameter(nil), ev.Parameters...)
	clone.Descriptors = append([]Descriptor(nil), ev.Descriptors...)
	return &clone
}

// ExtensionType returns the kind of the event's extension, defaulting
// to a current value when no extension is attached.
func (ev *Event) ExtensionType() ExtensionType {
	if ev.Extension == nil {
		return ExtensionCurrentValue
	}
	return ev.Extension.Kind()
}

// MarshalZerologObject logs the identifying fields of an event.
func (ev *Event) MarshalZerologObject(e *zerolog.Event) {
	e.Str("EventDate", dates.Date(ev.EventDate).String())
	e.Str("Type", ev.ExtensionType().String())
	e.Str("Value", ev.Value.String())
	e.Int("Periods", ev.Periods)
	e.Str("Frequency", ev.Frequency.String())
	e.Str("EventName", ev.EventName)
}

// eventEnvelope is the JSON wire form; the extension is carried
// alongside a type tag so the tagged union round-trips.
type eventEnvelope struct {
	Alias           aliasEvent      `json:"event"`
	ExtensionKind   string          `json:"extensionType"`
	ExtensionFields json.RawMessage `json:"extension,omitempty"`
}

type aliasEvent Event

// MarshalJSON encodes the event with its extension type tag.
func (ev *Event) MarshalJSON() ([]byte, error) {
	envelope := eventEnvelope{
		Alias:         aliasEvent(*ev),
		ExtensionKind: ev.ExtensionType().String(),
	}
	if ev.Extension != nil {
		raw, err := json.Marshal(ev.Extension)
		if err != nil {
			return nil, err
		}
		envelope.ExtensionFields = raw
	}
	return json.Marshal(&envelope)
}

// UnmarshalJSON decodes the event and rebuilds the tagged extension.
func (ev *Event) UnmarshalJSON(data []byte) error {
	var envelope eventEnvelope
	if err := json.Unmarshal(data, &envelope); err != nil {
		return err
	}
	*ev = Event(envelope.Alias)

	if envelope.ExtensionFields == nil {
		return nil
	}

	var ext Extension
	switch envelope.ExtensionKind {
	case ExtensionPrincipalChange.String():
		ext = &PrincipalChange{}
	case ExtensionInterestChange.String():
		ext = &InterestChange{}
	case ExtensionStatisticValue.String():
		ext = &StatisticValue{}
	default:
		ext = &CurrentValue{}
	}
	if err := json.Unmarshal(envelope.ExtensionFields, ext); err != nil {
		return err
	}
	ev.Extension = ext
	return nil
}
