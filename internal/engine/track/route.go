// SPDX-License-Identifier: MIT
// Package track implements Track (spec.md §4.2): a Processor whose body is
// an ordered composition of child Processors sharing an internal bus, plus
// the input/output channel routing that connects that bus to the engine's
// global channels.
package track

// Route maps one of the Track's internal bus channels to one of the
// engine's global channels. Multiple routes may target the same
// destination channel — per spec.md §4.2 they are additive, never
// replacing.
type Route struct {
	BusChannel    int
	EngineChannel int
}

// ExpandBus returns the two channel Routes a stereo-bus shorthand expands
// to: engine bus index busIndex covers global channels
// [2*busIndex, 2*busIndex+1], mapped onto the Track's bus channels starting
// at busChannelBase.
func ExpandBus(busChannelBase, busIndex int) []Route {
	base := 2 * busIndex
	return []Route{
		{BusChannel: busChannelBase, EngineChannel: base},
		{BusChannel: busChannelBase + 1, EngineChannel: base + 1},
	}
}

// ExpandMultichannel returns count sequential 1:1 channel Routes starting
// at busChannelBase/engineChannelBase — the shorthand used to connect an
// explicit multichannel input/output block declared in configuration.
func ExpandMultichannel(busChannelBase, engineChannelBase, count int) []Route {
	routes := make([]Route, count)
	for i := 0; i < count; i++ {
		routes[i] = Route{BusChannel: busChannelBase + i, EngineChannel: engineChannelBase + i}
	}
	return routes
}
