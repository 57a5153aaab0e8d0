package web

import (
	"bytes"
	"html/template"
)

type widgetData struct {
	BotName string
}

var widgetTmpl = template.Must(template.New("widget").Parse(`<!doctype html>
<html lang="en">
  <head>
    <meta charset="utf-8" />
    <meta name="viewport" content="width=device-width, initial-scale=1" />
    <title>{{.BotName}}</title>
    <style>
      * { box-sizing: border-box; }
      body { margin: 0; font-family: ui-sans-serif, system-ui, sans-serif; background: #f3f4f6; }
      #launcher { position: fixed; right: 1.5rem; bottom: 1.5rem; width: 3.5rem; height: 3.5rem; border-radius: 50%; border: 0; background: #2563eb; color: #fff; font-size: 1.5rem; cursor: pointer; box-shadow: 0 10px 25px rgba(0,0,0,.2); }
      #widget { position: fixed; right: 1.5rem; bottom: 6rem; width: 24rem; height: 36rem; display: none; flex-direction: column; background: #fff; border-radius: .75rem; box-shadow: 0 20px 40px rgba(0,0,0,.2); overflow: hidden; }
      #widget.open { display: flex; }
      header { background: #2563eb; color: #fff; padding: .75rem 1rem; font-weight: 700; display: flex; justify-content: space-between; }
      header a { color: #fff; font-weight: 400; font-size: .875rem; }
      #messages { flex: 1; overflow-y: auto; padding: 1rem; display: flex; flex-direction: column; gap: .5rem; }
      .msg { max-width: 85%; padding: .5rem .75rem; border-radius: .75rem; white-space: pre-wrap; word-wrap: break-word; }
      .msg.user { align-self: flex-end; background: #2563eb; color: #fff; }
      .msg.bot { align-self: flex-start; background: #e5e7eb; color: #111827; }
      .msg pre { background: #111827; color: #e5e7eb; padding: .5rem; border-radius: .375rem; overflow-x: auto; font-size: .75rem; }
      .msg button { margin-top: .5rem; border: 0; border-radius: .375rem; background: #10b981; color: #fff; padding: .25rem .75rem; cursor: pointer; }
      #typing { padding: 0 1rem .5rem; color: #6b7280; font-size: .875rem; visibility: hidden; }
      #typing.on { visibility: visible; }
      form { display: flex; border-top: 1px solid #e5e7eb; }
      form input { flex: 1; border: 0; padding: .75rem; font-size: 1rem; }
      form button { border: 0; background: #2563eb; color: #fff; padding: 0 1rem; cursor: pointer; }
      form button:disabled { background: #93c5fd; }
      #modal { position: fixed; inset: 0; background: rgba(0,0,0,.5); display: none; align-items: center; justify-content: center; }
      #modal.open { display: flex; }
      #modal .panel { background: #fff; width: min(56rem, 92vw); height: 80vh; border-radius: .75rem; display: flex; flex-direction: column; overflow: hidden; }
      #modal .bar { display: flex; justify-content: space-between; align-items: center; padding: .75rem 1rem; border-bottom: 1px solid #e5e7eb; }
      #modal iframe { flex: 1; border: 0; width: 100%; }
    </style>
  </head>
  <body>
    <button id="launcher" aria-label="Open chat">💬</button>
    <section id="widget" aria-label="{{.BotName}}">
      <header><span>{{.BotName}}</span><a href="/feedback" target="_blank">Feedback</a></header>
      <div id="messages"></div>
      <div id="typing">{{.BotName}} is typing…</div>
      <form id="composer">
        <input id="input" autocomplete="off" placeholder="Type a message…" />
        <button id="send" type="submit">Send</button>
      </form>
    </section>
    <div id="modal" role="dialog">
      <div class="panel">
        <div class="bar"><span id="output"></span><button id="close">Close</button></div>
        <iframe id="frame" sandbox="allow-scripts" title="Live preview"></iframe>
      </div>
    </div>
    <script>
      (function () {
        var sessionId = null, socket = null, pending = false;
        var list = document.getElementById("messages");
        var typing = document.getElementById("typing");
        var input = document.getElementById("input");
        var send = document.getElementById("send");

        function setPending(on) {
          pending = on;
          typing.classList.toggle("on", on);
          send.disabled = on;
        }

        function render(msg) {
          var el = document.createElement("div");
          el.className = "msg " + msg.sender;
          el.textContent = msg.text;
          if (msg.codeSnippet) {
            var pre = document.createElement("pre");
            pre.textContent = msg.codeSnippet.code;
            el.appendChild(pre);
          }
          if (msg.hasPreview) {
            var btn = document.createElement("button");
            btn.textContent = "Preview";
            btn.onclick = function () { openPreview(msg); };
            el.appendChild(btn);
          }
          list.appendChild(el);
          list.scrollTop = list.scrollHeight;
        }

        function openPreview(msg) {
          if (!msg.codeSnippet) { return; }
          document.getElementById("output").textContent = msg.codeSnippet.output;
          document.getElementById("frame").src = "/preview/" + sessionId + "/" + msg.id;
          document.getElementById("modal").classList.add("open");
        }

        document.getElementById("close").onclick = function () {
          document.getElementById("modal").classList.remove("open");
          document.getElementById("frame").src = "about:blank";
        };

        function connect() {
          var proto = location.protocol === "https:" ? "wss://" : "ws://";
          socket = new WebSocket(proto + location.host + "/api/ws/" + sessionId);
          socket.onmessage = function (e) {
            var ev = JSON.parse(e.data);
            if (ev.type === "history") {
              list.innerHTML = "";
              ev.messages.forEach(render);
              setPending(ev.session && ev.session.pending);
            } else if (ev.type === "typing") {
              setPending(ev.pending);
            } else if (ev.type === "message") {
              render(ev.message);
              if (ev.message.sender === "bot") { setPending(false); }
            } else if (ev.type === "error") {
              if (ev.code !== 409) { setPending(false); }
            }
          };
        }

        function start() {
          fetch("/api/sessions", { method: "POST" })
            .then(function (r) { return r.json(); })
            .then(function (body) { sessionId = body.session.id; connect(); });
        }

        document.getElementById("launcher").onclick = function () {
          var w = document.getElementById("widget");
          w.classList.toggle("open");
          if (w.classList.contains("open") && !sessionId) { start(); }
        };

        document.getElementById("composer").onsubmit = function (e) {
          e.preventDefault();
          var text = input.value;
          if (!text.trim() || pending || !socket) { return; }
          socket.send(JSON.stringify({ type: "message", text: text }));
          input.value = "";
        };
      })();
    </script>
  </body>
</html>
`))

func renderWidget(data widgetData) ([]byte, error) {
	var buf bytes.Buffer
	if err := widgetTmpl.Execute(&buf, data); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
