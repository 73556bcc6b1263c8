// Package documents submits documents to the CRPT "Честный знак" registry
// while keeping the process under the registry's request limit.
//
//	api, err := documents.New(time.Second, 5)
//	if err != nil {
//		return err
//	}
//
//	body, err := api.CreateDocument(ctx, doc, signature)
//
// All calls on one [API] share a sliding window from
// [github.com/adamwoolhether/crpt/throttle]; callers beyond the limit block
// rather than fail.
package documents
