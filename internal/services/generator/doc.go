/*
Package generator drives synthetic payments data generation runs.

A run is either initial (seeds a fresh merchant base and simulates a date
range) or incremental (loads the persisted state and continues forward from
the last generated date):

	svc, err := generator.NewService(cfg, logger)

	summary, err := svc.RunInitial(generator.InitialRequest{
	    StartDate: models.NewDate(2024, 1, 1),
	    EndDate:   models.NewDate(2024, 6, 30),
	})

	summary, err = svc.RunIncremental(generator.IncrementalRequest{
	    TargetDate: models.NewDate(2024, 7, 1),
	})

Output is chunked by month: each chunk is a transactions file streamed row
by row plus a merchants file of the versions effective in the range, both
named after the covered dates. The state document is rewritten only after a
chunk is durably on disk, so a failed or interrupted chunk is re-simulated
from the last good state and overwrites its own files.

Error classes:
  - errors.ConfigError: invalid configuration, nothing was run
  - errors.ValidationError: bad date ordering or a backward incremental
    request, no state was mutated
  - errors.StateError: missing or inconsistent state document on an
    incremental run
*/
package generator
