// Package ats ranks CVs against a job description in-process.
//
// The client runs the same pipeline as the ATS server: text extraction,
// normalization, one embedding batch and cosine ranking. Nothing is stored.
//
//	client, _ := ats.New(ats.WithLogger(slog.Default()))
//	res, err := client.Rank(ctx, ats.Request{
//	    JobDescription: ats.File{Name: "jd.txt", Data: jd},
//	    CVs:            []ats.File{{Name: "alice.pdf", Data: alice}},
//	    TopN:           5,
//	    OnProgress:     func(p int) { fmt.Fprintf(os.Stderr, "%d%%\n", p) },
//	})
//	for _, m := range res.Matches {
//	    fmt.Println(m.Rank, m.Filename, m.FormattedScore())
//	}
//
// Without WithEmbedder the client uses a local TF-IDF vectorizer, so it
// works offline. Pass any OpenAI-compatible or Gemini embedder for
// semantic embeddings.
package ats
