// Package cache implements the pet-clinic caching layer.
//
// A Cache is a named region of byte values. Two tiers are provided: an
// in-process LRU with expire-after-write (LocalManager) and a Redis-backed
// shared tier (RemoteManager). HybridManager pairs same-named regions from
// both into a HybridCache that reads local first, falls back to the remote
// tier, repopulates the local tier on a remote hit, and writes through to
// both.
//
// Basic usage:
//
//	local := cache.NewLocalManager(cfg.Cache.Local, cfg.Cache.Regions, logger)
//	remote, err := cache.NewRemoteManager(&cfg.Cache.Remote, cfg.Cache.Regions, logger)
//	if err != nil {
//	    return err
//	}
//	manager := cache.NewHybridManager(local, remote, logger)
//
//	vets, ok := manager.Cache("vets")
//	if ok {
//	    data, err := vets.GetOrLoad(ctx, "1", loadVet)
//	}
//
// Statistics are optional per implementation and exposed through
// StatsReporter. Only the local tier records them; HybridCache reports the
// statistics of its local tier.
package cache
