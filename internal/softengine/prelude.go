package softengine

// preludeJS sets up the minimal page environment in a fresh script
// context. All __-prefixed natives (console, title, localStorage,
// clipboard) must be registered before this runs.
const preludeJS = `
(function() {
	globalThis.window = globalThis;

	var levels = ['log', 'info', 'warn', 'error', 'debug'];
	var con = {};
	for (var i = 0; i < levels.length; i++) {
		(function(lvl) {
			con[lvl] = function() {
				var parts = [];
				for (var j = 0; j < arguments.length; j++) {
					var arg = arguments[j];
					if (typeof arg === 'object' && arg !== null) {
						try { parts.push(JSON.stringify(arg)); }
						catch (e) { parts.push('[object Object]'); }
					} else {
						parts.push(String(arg));
					}
				}
				__console(lvl, parts.join(' '));
			};
		})(levels[i]);
	}
	globalThis.console = con;

	globalThis.document = {
		get title() { return __getTitle(); },
		set title(t) { __setTitle(String(t)); },
		readyState: 'complete'
	};

	globalThis.localStorage = {
		getItem: function(k) {
			k = String(k);
			return __lsHas(k) ? __lsGet(k) : null;
		},
		setItem: function(k, v) { __lsSet(String(k), String(v)); },
		removeItem: function(k) { __lsRemove(String(k)); },
		clear: function() { __lsClear(); }
	};

	globalThis.navigator = {
		clipboard: {
			readText: function() { return Promise.resolve(__clipboardRead()); },
			writeText: function(t) { __clipboardWrite(String(t)); return Promise.resolve(); }
		}
	};
})();
`

// goNamespaceJS publishes the native send function under window.go.send,
// preserving any properties page scripts already put on window.go (such
// as a user-defined go.receive). Run by InstallBindings after __viewSend
// is registered; a content load discards it along with the context.
const goNamespaceJS = `
window.go = window.go || {};
window.go.send = function(m) {
	__viewSend(typeof m === 'string' ? m : JSON.stringify(m));
};
`
