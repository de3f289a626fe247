// Package script embeds a JavaScript runtime (goja) and exposes the minigun
// HTTP functions to scripts:
//
//	const resp = minigun.post("https://api.example.com/users", {
//	    headers: {"Content-Type": "application/json"},
//	    body: JSON.stringify({name: "John"}),
//	});
//	if (resp.ok()) {
//	    console.log(resp.json().id);
//	}
//
// Failures are thrown as Error objects whose name is the error kind
// (InvalidUrl, InvalidHeaderEntry, InvalidBodyType, RequestFailed,
// BodyReadFailed, InvalidMethod).
package script
