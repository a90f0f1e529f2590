// Package engine is the single entry point a caching layer talks to.
//
// An Engine synthesizes keys and tags, records every cache operation into a
// bounded live window, exposes that window and the durable history, and owns
// the background scheduler that merges the window into a store.Store.
//
// Typical use:
//
//	eng, err := engine.Open(ctx, cfg)
//	if err != nil {
//		return err
//	}
//	defer eng.Close(context.Background())
//	if err := eng.Start(ctx); err != nil {
//		return err
//	}
//
//	key, ok := eng.SynthesizeKey(cachekey.Query{Entity: "Product", Operation: "READ"}, snap, "")
//	if ok {
//		eng.RecordHit(3*time.Millisecond, key, metrics.KeyMetadata{Entity: "Product"})
//	}
//
// Record methods never block on I/O and never fail.
package engine
