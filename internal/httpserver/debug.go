package httpserver

// debugPageHTML renders the beat/edge graph from /api/visualization as a
// simple canvas scatter-and-arc plot, refreshed from /api/state while
// the jukebox plays. It intentionally has no build step: this is a
// debug aid, not the product surface.
const debugPageHTML = `<!doctype html>
<html>
<head>
<meta charset="utf-8">
<title>jukebox debug</title>
<style>
  html, body { margin: 0; height: 100%; overflow: hidden; background: #111; color: #eee; font-family: monospace; }
  header { height: 40px; display: flex; align-items: center; padding: 0 12px; border-bottom: 1px solid #333; }
  .main { position: absolute; top: 40px; left: 0; right: 0; bottom: 0; }
  canvas { width: 100%; height: 100%; display: block; }
</style>
</head>
<body>
<header>jukebox debug <span id="status"></span></header>
<div class="main"><canvas id="c"></canvas></div>
<script>
const canvas = document.getElementById('c');
const ctx = canvas.getContext('2d');
const status = document.getElementById('status');

function resize() {
  canvas.width = canvas.clientWidth;
  canvas.height = canvas.clientHeight;
}
window.addEventListener('resize', resize);
resize();

let viz = { beats: [], edges: [] };
let current = -1;

function draw() {
  ctx.clearRect(0, 0, canvas.width, canvas.height);
  const n = viz.beats.length;
  if (n === 0) return;
  const margin = 20;
  const w = canvas.width - margin * 2;
  const y = canvas.height / 2;

  ctx.strokeStyle = '#4a90d9';
  for (const e of viz.edges) {
    const x1 = margin + (e.src / n) * w;
    const x2 = margin + (e.dest / n) * w;
    const mid = (x1 + x2) / 2;
    const height = Math.min(80, Math.abs(x2 - x1) / 2);
    ctx.beginPath();
    ctx.moveTo(x1, y);
    ctx.quadraticCurveTo(mid, y - height, x2, y);
    ctx.stroke();
  }

  for (let i = 0; i < n; i++) {
    const x = margin + (i / n) * w;
    ctx.fillStyle = i === current ? '#ff5050' : '#888';
    ctx.beginPath();
    ctx.arc(x, y, i === current ? 4 : 2, 0, Math.PI * 2);
    ctx.fill();
  }
}

async function poll() {
  try {
    const [vizResp, stateResp] = await Promise.all([
      fetch('/api/visualization'),
      fetch('/api/state', { method: 'GET' }),
    ]);
    viz = await vizResp.json();
    const state = await stateResp.json();
    current = state.current_beat_index;
    status.textContent = 'beat ' + current + ' / threshold ' + state.current_threshold;
  } catch (e) {
    status.textContent = 'disconnected';
  }
  draw();
  setTimeout(poll, 500);
}
poll();
</script>
</body>
</html>`
