// Package dedupe collapses near-identical song titles into one canonical entry per group.
//
// Titles are grouped by [Normalize], which strips three kinds of trailing markup:
//  1. parenthesized annotations such as "(电视剧《X》插曲)", ASCII or full-width
//  2. dash-introduced collaboration credits such as " - 韩红/孙楠"
//  3. loose " - ..." or " . ..." tails
//
// Within a group the representative is chosen by [IsBetter]; the first title seen wins ties.
// [Deduplicate] is the plain list-in, list-out form; [Group] keeps the per-group variants for reporting.
// [Similar] flags kept titles whose keys are a few edits apart, without merging them.
package dedupe
