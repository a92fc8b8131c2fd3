// Package models defines the domain types shared by the imgmatch workflow, stores and front-ends.
//
// Value types:
//   - [ImageReference] : an externally resolvable image URL, validated with [ImageReference.Valid]
//   - [Slot] : the upload target, [SlotReference] (single) or [SlotGallery] (multi)
//   - [WorkflowState] : the match workflow state machine position
//
// Persistent entities:
//   - [MatchRun] : one submission that reached a terminal state, kept as history
//
// Persistent entities implement the [Model] interface; [Repository] defines CRUD access for them.
package models
