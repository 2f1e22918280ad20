// Package registry multiplexes running extension sessions behind a single
// event stream.
//
// A Registry maps extension ids to sessions. Register starts an extension
// and spawns a forwarder that pumps every session response into the merged
// Events channel, tagged with the extension id. Commands are routed the
// other way with Send.
//
//	reg := registry.New(registry.WithLogger(logger))
//	if err := reg.Register(ctx, ext); err != nil { ... }
//
//	go func() {
//	    for ev := range reg.Events() {
//	        fmt.Println(ev.Extension, ev.Response.Type)
//	    }
//	}()
//
//	reg.Send("weather", protocol.ListTools("c1"))
//
// The Events channel assumes one logical consumer. A session that
// terminates on its own is removed from the registry once its forwarder
// drains; its id becomes free for re-registration.
package registry
