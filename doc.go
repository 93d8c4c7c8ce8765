// Package chronorag wires the bi-temporal retrieval components into a
// single App.
//
// Open builds the storage backend, capability selection, versioned store,
// policy manager, router, retrieval pipeline, hop controller and ingestion
// service once. Callers share the App and reach components through its
// accessors, or use Evidence and Purge directly.
//
//	app, err := chronorag.Open("./data", chronorag.WithHeuristicOnly())
//	if err != nil {
//		return err
//	}
//	defer app.Close()
//
//	ev, err := app.Evidence(ctx, chronorag.EvidenceRequest{Query: "GDP 1870 Europe"})
package chronorag
