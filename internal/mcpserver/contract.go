package mcpserver

// NoteFormatURI is the resource URI under which NoteFormat is published.
const NoteFormatURI = "hashnotes://note-format"

// NoteFormat describes how note descriptions are turned into tags. LLM
// consumers should read it before creating or updating notes.
const NoteFormat = `# hashnotes note format

A note has a **title** and a **description**. Tags are not a separate field:
they are written inside the description as hashtags and extracted on save.

## Rules

1. **Title** is required and must not be blank. Surrounding spaces are trimmed.
2. **Hashtags** are whitespace-separated words starting with ` + "`#`" + `.
   Every character other than Latin letters, Cyrillic letters and digits is
   stripped from a hashtag: ` + "`#urgent!`" + ` becomes ` + "`urgent`" + `,
   ` + "`#to-do`" + ` becomes ` + "`todo`" + `. A hashtag that strips to nothing is ignored.
3. **Matching is exact and case-sensitive.** ` + "`#Work`" + ` and ` + "`#work`" + ` are different tags.
4. **The stored description** is the text with hashtag words removed and any
   remaining ` + "`#`" + ` characters dropped. It must not be empty, so a
   description consisting only of hashtags is rejected.
5. Tags keep their order of appearance; a repeated hashtag is stored twice.
6. The creation **date** is set by the server (` + "`YYYY-M-D`" + `) and never changes.

## Example

Input description:

    Buy milk #shopping #urgent!

Stored note:

    description: Buy milk
    tags: [shopping, urgent]

To edit a note, start from its ` + "`editable_description`" + ` (returned by
` + "`get_note`" + `), which re-appends the tags as hashtags.
`
