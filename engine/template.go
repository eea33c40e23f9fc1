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
package engine

import (
	"github.com/penny-vault/pvcashflow/cashflow"
	"github.com/penny-vault/pvcashflow/dates"
)

// TemplateEvent is a named, reusable event definition; instantiating
// it stamps a concrete date onto a copy of the prototype.
type TemplateEvent struct {
	Name string `json:"name" toml:"name"`
	// InitialAd marks templates added automatically when a cashflow
	// is created from the group.
	InitialAd bool     `json:"initialAd" toml:"initial_ad"`
	Prototype EventDef `json:"prototype" toml:"prototype"`
}

// TemplateGroup collects the template events for one kind of
// cashflow.
type TemplateGroup struct {
	Group     string          `json:"group" toml:"group"`
	Templates []TemplateEvent `json:"templates,omitempty" toml:"templates,omitempty"`
}

// Find returns the named template.
func (group *TemplateGroup) Find(name string) (*TemplateEvent, error) {
	for i := range group.Templates {
		if group.Templates[i].Name == name {
			return &group.Templates[i], nil
		}
	}
	return nil, cashflow.NewError(cashflow.ErrIndex, "no template named %q in group %q", name, group.Group)
}

// Instantiate materializes the named template onto the given date and
// appends it to the cashflow's event list, invalidating any derived
// schedule.
func (eng *CalcEngine) Instantiate(cf *Cashflow, group *TemplateGroup, name string, eventDate dates.Date) (*cashflow.Event, error) {
	template, err := group.Find(name)
	if err != nil {
		return nil, err
	}

	proto := template.Prototype
	proto.EventDate = int(eventDate)
	ev, err := proto.ToEvent()
	if err != nil {
		return nil, err
	}
	ev.EventName = template.Name
	cf.Events.Add(ev)
	cf.Touch()
	return ev, nil
}
