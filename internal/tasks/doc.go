// Package tasks reconciles task records between the board and program services.
//
// # Registry
//
// [Registry] owns the [models.Task] values of one run. It indexes tasks by board id and by program id, so matching a
// remote record is a map lookup; get-or-create is atomic under the registry mutex.
//
// # Adapters
//
// [BoardAdapter] and [ProgramAdapter] convert between remote payloads and tasks:
//
//  1. ParseIntoRecord folds a payload into a task with conditional writes, so a blank remote value never erases a
//     known one. The remote's modification time is always written.
//  2. MatchRecord decides whether a payload belongs to a task, by own id first and then by the cross id.
//  3. WriteFullTask writes every backed field; WriteChangedFields writes only the given fields.
//
// Both writes update first and fall back to creating the remote record when it has no id yet or the service reports
// it gone. Creation assigns the new id with a direct set, which marks it dirty.
//
// Categories travel to the board as five checkbox custom fields. A card's list also implies a category; when a parse
// has to add it the task's CategoryJustInferred flag is raised and [SyncEngine.LoadAll] writes the checkboxes back.
//
// # Orchestration
//
// [SyncEngine] runs the passes:
//   - [SyncEngine.LoadAll] : program pass, then board pass, then category propagation
//   - [SyncEngine.WriteAll] : board pass, then program pass, in [WriteEverything] or [WriteChanged] mode
//   - [SyncEngine.HandleRemoteEvent] : one webhook event, written to the program service
//   - [SyncEngine.SyncWebhooks] / [SyncEngine.PruneWebhooks] : board webhook maintenance
//
// Passes fan out over a bounded worker pool. Calls for one task stay sequential. Failures are collected per task in
// [PassResult] and never abort sibling tasks. Nothing is retried.
//
// # Progress Reporting
//
// All passes accept an optional channel of [ProgressUpdate]. Updates use select with default to prevent blocking.
package tasks
