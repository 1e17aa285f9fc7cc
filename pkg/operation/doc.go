/*
Package operation implements the replication workflows: enumerate, reconcile, copy, log and register.

	+------------+     +----------+     +--------------+
	|   Lister   | --> | Transfer | --> |   Register   |
	| (source)   |     | (copy +  |     | (catalogue)  |
	+------------+     |  log)    |     +--------------+
	                   +----------+

🎯 Engines:
- Transfer copies each candidate to destinationRoot + baseName unless the destination
  already carries the same Adler-32 checksum, then appends a synced line to the transfer log.
- Register adds one catalogue entry per candidate under lfnRoot + baseName unless the
  catalogue proves the name is already present.

Both engines take Candidates: a FreshPath needs a stat and a checksum, a LoggedRecord
already carries its size and checksum from a transfer log.

🔄 Workflows:
The Orchestrator picks transfer-only, register-only or transfer-then-register from the two
mode flags, validates the config before any I/O and runs the steps through a sequential
Runner. The first transport or catalogue failure aborts the run; reruns converge because
every step starts with an existence check.

In transfer-then-register, every file that ends up correct at the destination (copied or
already in sync) is offered to registration, and the catalogue existence check decides.
*/
package operation
