// Package worker runs FHIRPath evaluation requests in parallel.
//
// Batch evaluates a fixed slice of requests and returns results in
// request order. Pool is a long-lived set of workers fed through Submit,
// for producers that do not know the number of requests up front.
//
// Example usage:
//
//	pool := worker.NewPool(eng, 4)
//	defer pool.Close()
//
//	for i, req := range requests {
//	    pool.Submit(worker.Job{Index: i, Request: req})
//	}
//
//	for result := range pool.Results() {
//	    if result.Error != nil {
//	        // Handle error
//	    }
//	    // Process result.Result
//	}
package worker
