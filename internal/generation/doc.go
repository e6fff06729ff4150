// Package generation defines the boundary to the external flashcard
// generator and the tolerant parsing pipeline that turns its raw text
// responses into validated card candidates.
//
// The generator is an LLM reached over the network; its output is prose that
// usually, but not always, contains a JSON array of question/answer objects,
// often wrapped in a markdown code fence and sometimes truncated. The parser
// here deliberately uses a two-tier strategy (strict parse, then a salvage
// scan for the first bracketed span) so that noisy output degrades to "no
// cards produced" instead of an error.
package generation
