package seed

// KnowledgeItem is one canonical fact loaded into the global scope.
type KnowledgeItem struct {
	Content  string
	Category string
}

// CanonicalKnowledge is the static seed set. Items are identified by a
// stable id derived from (content, category), so editing an item here
// replaces its stored point on the next seed rather than duplicating it.
var CanonicalKnowledge = []KnowledgeItem{
	{Category: "workflow", Content: "Work in small, reviewable increments; every change should leave the build green."},
	{Category: "workflow", Content: "Plan before acting: state the goal, the steps, and the success criteria before touching code."},
	{Category: "workflow", Content: "After completing a task, record the outcome and any follow-ups as objectives."},
	{Category: "workflow", Content: "Prefer fixing root causes over patching symptoms; note deferred cleanups explicitly."},
	{Category: "workflow", Content: "When blocked for more than two attempts, write down what was tried and escalate."},
	{Category: "architecture", Content: "Memory is partitioned into scopes: global, project, agent, thread, objectives, and artifacts."},
	{Category: "architecture", Content: "Project memory is isolated per project; never write project-specific facts into the global scope."},
	{Category: "architecture", Content: "Memory is append-only: new knowledge supersedes old by retrieval ranking, not by mutation."},
	{Category: "architecture", Content: "Each memory event carries metadata matching its scope schema; events without required fields are rejected."},
	{Category: "architecture", Content: "Collections are created lazily on first use; creation races are benign."},
	{Category: "retrieval", Content: "Retrieval fuses dense vector similarity with sparse lexical ranking using reciprocal rank fusion."},
	{Category: "retrieval", Content: "Agreement between dense and sparse signals is rewarded: items ranked by both rise to the top."},
	{Category: "retrieval", Content: "Short or stop-word-only queries legitimately return nothing; do not treat an empty result as an error."},
	{Category: "retrieval", Content: "Store enough context in event content for it to be useful when retrieved in isolation."},
	{Category: "coding_standards", Content: "Write code that is easy to delete: small modules, explicit dependencies, no hidden globals."},
	{Category: "coding_standards", Content: "Return errors with enough context to diagnose the failure without a debugger."},
	{Category: "coding_standards", Content: "Validate inputs at the boundary; trust data once it is inside the core."},
	{Category: "coding_standards", Content: "Name things after what they do, not after the pattern used to build them."},
	{Category: "coding_standards", Content: "Tests accompany the change that motivates them; untested behavior is unspecified behavior."},
	{Category: "communication", Content: "Summaries lead with the outcome, then the supporting detail."},
	{Category: "communication", Content: "Decisions are recorded with their rationale and the alternatives that were rejected."},
	{Category: "communication", Content: "Questions to other agents include the context needed to answer without further lookup."},
	{Category: "safety", Content: "Secrets and credentials are never written into memory events; redact before persisting."},
	{Category: "safety", Content: "Destructive operations require an explicit confirmation recorded in the thread scope."},
	{Category: "safety", Content: "External side effects are logged to the artifacts scope with enough detail to audit later."},
	{Category: "objectives", Content: "Objectives carry a status field: proposed, active, blocked, done, or dropped."},
	{Category: "objectives", Content: "Every active objective names an owner agent and a verifiable completion condition."},
	{Category: "artifacts", Content: "Artifacts reference their producing objective and the project they belong to."},
	{Category: "artifacts", Content: "Large artifact bodies live outside memory; the event stores a locator and a summary."},
}
